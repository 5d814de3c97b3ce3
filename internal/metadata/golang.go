package metadata

import (
	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/model"
)

// GoExtractor walks a Go AST for import path and call references. The
// teacher has no equivalent (its chunker never extracted metadata beyond
// doc comments and file context), so this is written fresh in the same
// node-walking idiom as PythonExtractor/TypeScriptExtractor.
type GoExtractor struct{}

// ExtractImports returns every imported package path.
func (g *GoExtractor) ExtractImports(tree *chunk.Tree, source []byte) []string {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var imports []string
	tree.Root.Walk(func(n *chunk.Node) bool {
		if n.Type != "import_spec" {
			return true
		}
		if lit := n.FindChildByType("interpreted_string_literal"); lit != nil {
			imports = append(imports, stripQuotes(lit.GetContent(source)))
		}
		return false
	})
	return dedupe(imports)
}

// ExtractCalls returns every call reachable from node.
func (g *GoExtractor) ExtractCalls(node *chunk.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	var calls []string
	node.Walk(func(n *chunk.Node) bool {
		if n.Type == "call_expression" && len(n.Children) > 0 {
			if name := dottedCallName(n.Children[0], source); name != "" {
				calls = append(calls, name)
			}
		}
		return true
	})
	return dedupe(calls)
}

// ExtractReExports always returns nil: Go has no re-export construct.
func (g *GoExtractor) ExtractReExports(tree *chunk.Tree, source []byte) []model.ReExport {
	return nil
}
