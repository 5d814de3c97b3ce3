package metadata

import (
	"context"
	"strings"

	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/model"
)

// Service implements chunk.Enricher: it is run once per extracted chunk,
// over the chunk's full parsed file, so metadata never sees byte offsets
// that have drifted from what the chunker already decided (spec §4.4 step
// 5, §4.5).
type Service struct {
	registry *Registry
}

// NewService builds a metadata service against the default extractor set.
func NewService() *Service {
	return &Service{registry: NewRegistry()}
}

// Enrich populates imports, calls, re-exports, and a rough complexity score
// on c. Chunks produced by the fixed-size fallback or with no registered
// extractor are left with whatever the chunker already set.
func (s *Service) Enrich(ctx context.Context, file chunk.FileInput, tree *chunk.Tree, c *model.Chunk) {
	if c.Metadata.Fallback || c.Kind == model.ChunkConfigModule {
		return
	}

	extractor, ok := s.registry.Get(file.Language)
	if !ok || tree == nil || tree.Root == nil {
		return
	}

	c.Metadata.Imports = extractor.ExtractImports(tree, file.Source)

	if c.Kind == model.ChunkBarrel {
		c.Metadata.ReExports = extractor.ExtractReExports(tree, file.Source)
		return
	}

	node := findNodeForRange(tree.Root, c.StartLine, c.EndLine)
	if node == nil {
		node = tree.Root
	}
	c.Metadata.Calls = extractor.ExtractCalls(node, file.Source)
	c.Metadata.Complexity = map[string]int{"cyclomatic": cyclomaticComplexity(c.Source)}
}

// findNodeForRange returns the smallest node whose line span covers
// [startLine, endLine] (1-indexed, inclusive).
func findNodeForRange(root *chunk.Node, startLine, endLine int) *chunk.Node {
	var best *chunk.Node
	var bestSpan uint32 = ^uint32(0)
	root.Walk(func(n *chunk.Node) bool {
		nStart := int(n.StartPoint.Row) + 1
		nEnd := int(n.EndPoint.Row) + 1
		if nStart > startLine || nEnd < endLine {
			return false // doesn't fully contain the range; neither will its children
		}
		span := n.EndByte - n.StartByte
		if span < bestSpan {
			best = n
			bestSpan = span
		}
		return true
	})
	return best
}

// cyclomaticComplexity is a rough branch count: one plus the number of
// branching keywords found in the chunk's own source text. It is a cheap
// proxy, not a parser-accurate metric, used only to populate the
// complexity field graph nodes expose for ranking (spec §3 Node
// properties).
func cyclomaticComplexity(source string) int {
	branches := []string{"if ", "elif ", "else if", "for ", "while ", "case ", "catch ", "except ", "&&", "||", " and ", " or "}
	count := 1
	for _, b := range branches {
		count += strings.Count(source, b)
	}
	return count
}
