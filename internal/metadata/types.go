// Package metadata implements the per-language import/call/re-export
// extractors described in spec §4.5. Each extractor walks the AST produced
// by internal/chunk rather than issuing tree-sitter queries, matching the
// manual node-walking idiom internal/chunk already uses.
package metadata

import (
	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/model"
)

// Extractor pulls language-specific references out of a parsed file.
type Extractor interface {
	// ExtractImports returns the import references found anywhere in the
	// file, in each language's own shape (see the extractors).
	ExtractImports(tree *chunk.Tree, source []byte) []string

	// ExtractCalls returns every function/method call reachable under node.
	ExtractCalls(node *chunk.Node, source []byte) []string

	// ExtractReExports returns barrel-style re-export entries
	// (`export { X } from './y'`) found anywhere in the file.
	ExtractReExports(tree *chunk.Tree, source []byte) []model.ReExport
}

// Registry maps a language name to its extractor.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry with the extractors this port ships.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	py := &PythonExtractor{}
	ts := &TypeScriptExtractor{}
	goExt := &GoExtractor{}
	r.extractors["python"] = py
	r.extractors["typescript"] = ts
	r.extractors["tsx"] = ts
	r.extractors["javascript"] = ts
	r.extractors["jsx"] = ts
	r.extractors["go"] = goExt
	return r
}

// Get returns the extractor registered for a language, if any.
func (r *Registry) Get(language string) (Extractor, bool) {
	e, ok := r.extractors[language]
	return e, ok
}
