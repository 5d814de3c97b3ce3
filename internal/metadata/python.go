package metadata

import (
	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/model"
)

// PythonExtractor walks a Python AST for import, call, and re-export
// references. Grounded on original_source's PythonMetadataExtractor, ported
// from tree-sitter queries to plain node walks since internal/chunk does
// not retain tree-sitter field names.
type PythonExtractor struct{}

// ExtractImports returns every `import X` / `from X import Y` reference.
func (p *PythonExtractor) ExtractImports(tree *chunk.Tree, source []byte) []string {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var imports []string
	tree.Root.Walk(func(n *chunk.Node) bool {
		switch n.Type {
		case "import_statement":
			for _, d := range n.FindChildrenByType("dotted_name") {
				imports = append(imports, d.GetContent(source))
			}
			return false
		case "import_from_statement":
			names := n.FindChildrenByType("dotted_name")
			if len(names) == 0 {
				return false
			}
			module := names[0].GetContent(source)
			if len(names) == 1 {
				imports = append(imports, module)
			}
			for _, d := range names[1:] {
				imports = append(imports, module+"."+d.GetContent(source))
			}
			for _, al := range n.FindChildrenByType("aliased_import") {
				if dn := al.FindChildByType("dotted_name"); dn != nil {
					imports = append(imports, module+"."+dn.GetContent(source))
				}
			}
			return false
		}
		return true
	})
	return dedupe(imports)
}

// ExtractCalls returns every call reachable from node.
func (p *PythonExtractor) ExtractCalls(node *chunk.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	var calls []string
	node.Walk(func(n *chunk.Node) bool {
		if n.Type == "call" && len(n.Children) > 0 {
			if name := dottedCallName(n.Children[0], source); name != "" {
				calls = append(calls, name)
			}
		}
		return true
	})
	return dedupe(calls)
}

// ExtractReExports always returns nil: Python modules don't have a
// `export { X } from 'y'` construct, and the original's barrel heuristic
// treats `__init__.py` re-import patterns as ordinary imports rather than
// re-exports.
func (p *PythonExtractor) ExtractReExports(tree *chunk.Tree, source []byte) []model.ReExport {
	return nil
}
