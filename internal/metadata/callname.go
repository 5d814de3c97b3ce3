package metadata

import "github.com/codeintel/engine/internal/chunk"

// dottedCallName recovers a call target's dotted text from a call
// expression's function/constructor node, across Python's `attribute`,
// JS/TS's `member_expression`, and Go's `selector_expression` — all three
// grammars shape member access the same way: a first child holding the
// object (possibly itself a nested member access) and a last child holding
// the accessed name.
func dottedCallName(n *chunk.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case "identifier", "property_identifier", "field_identifier", "type_identifier":
		return n.GetContent(source)
	case "attribute", "member_expression", "selector_expression":
		if len(n.Children) < 2 {
			return ""
		}
		obj := dottedCallName(n.Children[0], source)
		attr := n.Children[len(n.Children)-1].GetContent(source)
		if obj == "" {
			return attr
		}
		return obj + "." + attr
	default:
		return ""
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
