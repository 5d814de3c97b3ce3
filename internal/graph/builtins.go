// Package graph builds and traverses the cross-reference dependency graph
// from indexed chunks (spec §4.10–4.11): node/edge construction, the
// call-resolution ladder, qualified-name backfill, and Postgres recursive
// CTE traversal.
package graph

// builtins lists, per language, identifiers the call-resolution ladder
// never tries to resolve (spec §4.10 step 3 "skip language built-ins").
// Grounded on original_source/api/services/graph_construction_service.py's
// PYTHON_BUILTINS; the TypeScript/JavaScript list is new, covering the
// global functions and constructors indexing would otherwise try (and
// fail) to resolve against the repository's own chunks.
var builtins = map[string]map[string]struct{}{
	"python": setOf(
		"abs", "all", "any", "ascii", "bin", "bool", "bytearray", "bytes",
		"callable", "chr", "classmethod", "compile", "complex", "delattr",
		"dict", "dir", "divmod", "enumerate", "eval", "exec", "filter",
		"float", "format", "frozenset", "getattr", "globals", "hasattr",
		"hash", "help", "hex", "id", "input", "int", "isinstance",
		"issubclass", "iter", "len", "list", "locals", "map", "max",
		"memoryview", "min", "next", "object", "oct", "open", "ord",
		"pow", "print", "property", "range", "repr", "reversed", "round",
		"set", "setattr", "slice", "sorted", "staticmethod", "str", "sum",
		"super", "tuple", "type", "vars", "zip", "__import__",
		"Exception", "ValueError", "TypeError", "KeyError", "IndexError",
		"AttributeError", "ImportError", "RuntimeError", "NotImplementedError",
		"StopIteration", "AssertionError", "SystemExit", "KeyboardInterrupt",
		"None", "True", "False", "Ellipsis", "NotImplemented",
	),
	"typescript": setOf(
		"console.log", "console.error", "console.warn", "console.debug",
		"console.info", "JSON.stringify", "JSON.parse", "Object.keys",
		"Object.values", "Object.entries", "Object.assign", "Object.freeze",
		"Array.isArray", "Array.from", "Promise.resolve", "Promise.reject",
		"Promise.all", "Promise.race", "Promise.allSettled",
		"Math.max", "Math.min", "Math.floor", "Math.ceil", "Math.round",
		"Math.random", "Math.abs", "Number.isInteger", "Number.parseFloat",
		"Number.parseInt", "String", "Number", "Boolean", "Array", "Object",
		"Map", "Set", "WeakMap", "WeakSet", "Symbol", "Proxy", "Reflect",
		"Error", "TypeError", "RangeError", "SyntaxError", "setTimeout",
		"setInterval", "clearTimeout", "clearInterval", "parseInt",
		"parseFloat", "isNaN", "isFinite", "encodeURIComponent",
		"decodeURIComponent", "require", "Symbol.iterator",
	),
	"go": setOf(
		"len", "cap", "append", "copy", "delete", "make", "new", "panic",
		"recover", "print", "println", "close", "complex", "real", "imag",
		"min", "max", "clear", "error", "errors.New", "fmt.Println",
		"fmt.Printf", "fmt.Sprintf", "fmt.Errorf",
	),
}

// javascript shares the TypeScript global set.
func init() {
	builtins["javascript"] = builtins["typescript"]
}

func setOf(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// IsBuiltin reports whether callName is a language built-in that the
// resolution ladder should skip without attempting to resolve it.
func IsBuiltin(language, callName string) bool {
	set, ok := builtins[language]
	if !ok {
		return false
	}
	_, isBuiltin := set[callName]
	return isBuiltin
}
