package chunk

import (
	"context"
	"time"

	"github.com/codeintel/engine/internal/model"
)

// Default chunk size bounds for the cAST split-then-merge algorithm
// (spec §4.4).
const (
	DefaultMaxChunkSize = 2000
	DefaultMinChunkSize = 100

	// FallbackOverlapRatio is the fraction of lines the fixed-size fallback
	// chunker repeats between consecutive chunks. Kept at 10% by
	// convention — see SPEC_FULL.md §7 open question 1.
	FallbackOverlapRatio = 0.10

	// parseTimeout bounds a single tree-sitter parse (spec §5).
	parseTimeout = 30 * time.Second

	// barrelReExportRatio is the re-export-line threshold past which a
	// file is classified as a barrel module (spec §4.4).
	barrelReExportRatio = 0.80
)

// FileInput is the input to the chunker for a single file.
type FileInput struct {
	Path       string
	Source     []byte
	Language   string
	Repository string
	CommitHash string
}

// Options configures the AST chunker (spec §4.4 operation signature).
type Options struct {
	MaxChunkSize int
	MinChunkSize int
}

// DefaultOptions returns the chunker defaults from spec §4.4.
func DefaultOptions() Options {
	return Options{MaxChunkSize: DefaultMaxChunkSize, MinChunkSize: DefaultMinChunkSize}
}

// Chunker splits a file's source into semantic units.
type Chunker interface {
	Chunk(ctx context.Context, file FileInput, opts Options) ([]*model.Chunk, error)
	SupportedLanguages() []string
}

// Tree represents a parsed AST.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node represents a node in the AST. Its accessor/traversal methods live in
// parser.go alongside the tree-sitter conversion that constructs them.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point represents a position in the source code.
type Point struct {
	Row    uint32 // 0-indexed line number
	Column uint32
}

// LanguageConfig holds configuration for a supported language.
type LanguageConfig struct {
	Name       string
	Extensions []string

	// Node types that indicate function declarations
	FunctionTypes []string

	// Node types that indicate class/struct definitions
	ClassTypes []string

	// Node types that indicate interface definitions
	InterfaceTypes []string

	// Node types that indicate method definitions
	MethodTypes []string

	// Node types that indicate type definitions
	TypeDefTypes []string

	// Node types that indicate constant declarations
	ConstantTypes []string

	// Node types that indicate variable declarations
	VariableTypes []string

	// Node type for name identifier
	NameField string
}
