package metadata

import (
	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/model"
)

// TypeScriptExtractor walks a TS/TSX/JS/JSX AST for import, call, and
// re-export references. Grounded on original_source's
// TypeScriptMetadataExtractor (ESM import/export forms), ported from
// tree-sitter queries to plain node walks.
type TypeScriptExtractor struct{}

// ExtractImports returns named, namespace, and default import references,
// in the "source.Name" / "source" shape the original used. Re-export
// sources are not included; ExtractReExports reports those. Side-effect imports (`import './styles.css'`) are skipped,
// matching the original.
func (t *TypeScriptExtractor) ExtractImports(tree *chunk.Tree, source []byte) []string {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var imports []string
	tree.Root.Walk(func(n *chunk.Node) bool {
		if n.Type != "import_statement" {
			return true
		}
		src := importSource(n, source)
		clause := n.FindChildByType("import_clause")
		if clause == nil || src == "" {
			return false // side-effect import
		}
		if ns := clause.FindChildByType("namespace_import"); ns != nil {
			imports = append(imports, src)
		}
		if named := clause.FindChildByType("named_imports"); named != nil {
			for _, spec := range named.FindChildrenByType("import_specifier") {
				if id := spec.FindChildByType("identifier"); id != nil {
					imports = append(imports, src+"."+id.GetContent(source))
				}
			}
		}
		if id := clause.FindChildByType("identifier"); id != nil {
			imports = append(imports, src)
		}
		return false
	})
	return dedupe(imports)
}

// ExtractReExports returns `export { X } from 'y'` and `export * from 'y'`
// entries found anywhere in the file.
func (t *TypeScriptExtractor) ExtractReExports(tree *chunk.Tree, source []byte) []model.ReExport {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var out []model.ReExport
	tree.Root.Walk(func(n *chunk.Node) bool {
		if n.Type != "export_statement" {
			return true
		}
		src := importSource(n, source)
		if src == "" {
			return false // local export, nothing re-exported from elsewhere
		}
		if clause := n.FindChildByType("export_clause"); clause != nil {
			for _, spec := range clause.FindChildrenByType("export_specifier") {
				ids := spec.FindChildrenByType("identifier")
				if len(ids) == 0 {
					continue
				}
				original := ids[0].GetContent(source)
				symbol := original
				if len(ids) > 1 {
					symbol = ids[1].GetContent(source) // aliased: export { a as b }
				}
				out = append(out, model.ReExport{Symbol: symbol, Source: src, Original: original})
			}
			return false
		}
		// export * from './x'
		for _, c := range n.Children {
			if c.Type == "*" {
				out = append(out, model.ReExport{Symbol: "*", Source: src})
				break
			}
		}
		return false
	})
	return out
}

// ExtractCalls returns every call/constructor invocation reachable from
// node.
func (t *TypeScriptExtractor) ExtractCalls(node *chunk.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	var calls []string
	node.Walk(func(n *chunk.Node) bool {
		switch n.Type {
		case "call_expression":
			if len(n.Children) > 0 {
				if name := dottedCallName(n.Children[0], source); name != "" {
					calls = append(calls, name)
				}
			}
		case "new_expression":
			for _, c := range n.Children {
				if c.Type == "new" || c.Type == "arguments" {
					continue
				}
				if name := dottedCallName(c, source); name != "" {
					calls = append(calls, name)
				}
				break
			}
		}
		return true
	})
	return dedupe(calls)
}

// importSource finds an import/export statement's `from '...'` string
// literal and strips its quotes.
func importSource(n *chunk.Node, source []byte) string {
	if s := n.FindChildByType("string"); s != nil {
		return stripQuotes(s.GetContent(source))
	}
	return ""
}
