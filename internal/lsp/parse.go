package lsp

import (
	"encoding/json"
	"strings"
)

// TypeInfo is the metadata recovered from a hover response (spec §4.6,
// "Type extraction").
type TypeInfo struct {
	Signature   string
	ReturnType  string
	ParamTypes  []string
}

// parseHoverContents normalizes the three shapes textDocument/hover can
// return: a bare string, a MarkupContent object, or a MarkedString array
// (grounded on lsp_client.py's hover content handling).
func parseHoverContents(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var markup struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &markup); err == nil && markup.Value != "" {
		return markup.Value
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var parts []string
		for _, item := range list {
			if part := parseHoverContents(item); part != "" {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, "\n")
	}

	return ""
}

// parseSignature extracts {signature, return_type, param_types} from raw
// hover text (spec §4.6, "Type extraction"). Language-server prefixes
// such as "(function)" or a leading code fence are stripped first.
func parseSignature(hoverText string) TypeInfo {
	text := stripHoverNoise(hoverText)
	if text == "" {
		return TypeInfo{}
	}

	returnType, body := splitReturnType(text)
	params := splitParamTypes(body)

	return TypeInfo{
		Signature:  text,
		ReturnType: returnType,
		ParamTypes: params,
	}
}

func stripHoverNoise(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```typescript")
	text = strings.TrimPrefix(text, "```python")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	for _, prefix := range []string{"(function)", "(method)", "(variable)", "(property)", "(class)"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}

	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// splitReturnType separates a return type annotation from the rest of a
// signature on "->" (Python), "=>" (arrow functions) or a trailing ": T"
// (TypeScript function declarations).
func splitReturnType(text string) (returnType, rest string) {
	if idx := strings.LastIndex(text, "->"); idx >= 0 {
		return strings.TrimSpace(text[idx+2:]), strings.TrimSpace(text[:idx])
	}
	if idx := strings.LastIndex(text, "=>"); idx >= 0 {
		return strings.TrimSpace(text[idx+2:]), strings.TrimSpace(text[:idx])
	}

	if close := strings.LastIndex(text, ")"); close >= 0 && close < len(text)-1 {
		tail := text[close+1:]
		if name, value, ok := strings.Cut(tail, ":"); ok && strings.TrimSpace(name) == "" {
			return strings.TrimSpace(value), strings.TrimSpace(text[:close+1])
		}
	}

	return "", text
}

// splitParamTypes splits the parameter list of a signature on commas
// that are not nested inside brackets, then strips TypeScript optionality
// (?:), rest (...) and default-value suffixes from each entry.
func splitParamTypes(signature string) []string {
	open := strings.Index(signature, "(")
	close := strings.LastIndex(signature, ")")
	if open < 0 || close <= open {
		return nil
	}
	inner := signature[open+1 : close]
	if strings.TrimSpace(inner) == "" {
		return nil
	}

	parts := splitOnTopLevelComma(inner)
	params := make([]string, 0, len(parts))
	for _, p := range parts {
		if cleaned := cleanParam(p); cleaned != "" {
			params = append(params, cleaned)
		}
	}
	return params
}

func splitOnTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func cleanParam(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "...")
	if eq := strings.Index(p, "="); eq >= 0 {
		p = p[:eq]
	}
	p = strings.TrimSpace(p)
	p = strings.Replace(p, "?:", ":", 1) // TypeScript optional-param marker
	p = strings.TrimSuffix(p, "?")       // optional param with no type annotation
	return strings.TrimSpace(p)
}
