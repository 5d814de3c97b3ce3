package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHoverContents_PlainString(t *testing.T) {
	got := parseHoverContents([]byte(`"def foo() -> int"`))

	assert.Equal(t, "def foo() -> int", got)
}

func TestParseHoverContents_MarkupContentObject(t *testing.T) {
	got := parseHoverContents([]byte(`{"kind":"markdown","value":"function foo(): number"}`))

	assert.Equal(t, "function foo(): number", got)
}

func TestParseHoverContents_MarkedStringArray(t *testing.T) {
	got := parseHoverContents([]byte(`["(function) foo(): number", "some docs"]`))

	assert.Equal(t, "(function) foo(): number\nsome docs", got)
}

func TestParseHoverContents_EmptyInputReturnsEmptyString(t *testing.T) {
	assert.Equal(t, "", parseHoverContents(nil))
}

func TestParseSignature_PythonFunctionWithReturnAndParams(t *testing.T) {
	info := parseSignature("def compute(a: int, b: str = 'x') -> bool")

	assert.Equal(t, "bool", info.ReturnType)
	assert.Equal(t, []string{"a: int", "b: str"}, info.ParamTypes)
}

func TestParseSignature_TypeScriptArrowFunction(t *testing.T) {
	info := parseSignature("(value: string, count?: number) => void")

	assert.Equal(t, "void", info.ReturnType)
	assert.Equal(t, []string{"value: string", "count: number"}, info.ParamTypes)
}

func TestParseSignature_StripsFunctionPrefixAndTrailingColonReturn(t *testing.T) {
	info := parseSignature("(function) foo(x: number): string")

	assert.Equal(t, "string", info.ReturnType)
	assert.Equal(t, []string{"x: number"}, info.ParamTypes)
}

func TestParseSignature_NestedBracketsDoNotSplitParams(t *testing.T) {
	info := parseSignature("def run(items: List[Tuple[int, str]]) -> None")

	assert.Equal(t, "None", info.ReturnType)
	assert.Equal(t, []string{"items: List[Tuple[int, str]]"}, info.ParamTypes)
}

func TestParseSignature_EmptyHoverTextReturnsZeroValue(t *testing.T) {
	info := parseSignature("   ")

	assert.Equal(t, TypeInfo{}, info)
}

func TestDetectLanguage_MapsExtensionsToLanguageIDs(t *testing.T) {
	assert.Equal(t, LanguagePython, DetectLanguage("a/b.py"))
	assert.Equal(t, LanguageTypeScript, DetectLanguage("a/b.ts"))
	assert.Equal(t, LanguageTypeScriptReact, DetectLanguage("a/b.tsx"))
	assert.Equal(t, LanguageJavaScript, DetectLanguage("a/b.js"))
	assert.Equal(t, LanguageJavaScriptReact, DetectLanguage("a/b.jsx"))
	assert.Equal(t, "", DetectLanguage("a/b.go"))
}
