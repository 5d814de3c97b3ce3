package lsp

import "path/filepath"

// serverSpec names the subprocess used to serve one language family
// (spec §4.6: "spawn stdio subprocess").
type serverSpec struct {
	command string
	args    []string
}

var servers = map[string]serverSpec{
	LanguagePython:          {command: "pyright-langserver", args: []string{"--stdio"}},
	LanguageTypeScript:      {command: "typescript-language-server", args: []string{"--stdio"}},
	LanguageTypeScriptReact: {command: "typescript-language-server", args: []string{"--stdio"}},
	LanguageJavaScript:      {command: "typescript-language-server", args: []string{"--stdio"}},
	LanguageJavaScriptReact: {command: "typescript-language-server", args: []string{"--stdio"}},
}

// DetectLanguage maps a file extension to an LSP language id, or ""
// if no language server in this package covers it.
func DetectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".py", ".pyi":
		return LanguagePython
	case ".ts":
		return LanguageTypeScript
	case ".tsx":
		return LanguageTypeScriptReact
	case ".js", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".jsx":
		return LanguageJavaScriptReact
	default:
		return ""
	}
}

// isTypeScriptFamily reports whether languageID is served by the
// TypeScript language server rather than Pyright.
func isTypeScriptFamily(languageID string) bool {
	switch languageID {
	case LanguageTypeScript, LanguageTypeScriptReact, LanguageJavaScript, LanguageJavaScriptReact:
		return true
	default:
		return false
	}
}
