package chunk

import (
	"path/filepath"
	"strings"
)

// fileClass is the outcome of classifying a file before chunking (spec
// §4.4 step 1).
type fileClass int

const (
	classNormal fileClass = iota
	classConfig
	classBarrelCandidate
)

// configBasenames are well-known config file names that get a single,
// lightly-extracted config_module chunk instead of AST splitting.
var configBasenames = []string{
	"tsconfig", "jsconfig", "vite.config", "webpack.config", "rollup.config",
	"babel.config", "jest.config", "vitest.config", "next.config",
	"tailwind.config", "postcss.config", "eslint.config", ".eslintrc",
	"setup.cfg", "pyproject.toml", "requirements.txt",
}

// classifyFile inspects a file path (not its contents) and returns a
// coarse classification used to pick a chunking strategy.
func classifyFile(path string) fileClass {
	base := filepath.Base(path)
	stem1 := strings.TrimSuffix(base, filepath.Ext(base))
	// tsconfig.base.json, jest.config.ts, etc. carry a second extension;
	// strip it too before matching.
	stem2 := strings.TrimSuffix(stem1, filepath.Ext(stem1))

	for _, known := range configBasenames {
		if stem1 == known || stem2 == known || base == known {
			return classConfig
		}
	}

	if isTestFile(path) {
		return classNormal
	}

	if stem1 == "index" || stem1 == "__init__" {
		return classBarrelCandidate
	}

	return classNormal
}

// isTestFile reports whether path matches a common test-file naming
// convention. Test files are chunked normally but are never treated as
// barrel-export candidates even when named index.test.ts.
func isTestFile(path string) bool {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	if strings.Contains(lower, ".spec.") || strings.Contains(lower, ".test.") {
		return true
	}
	if strings.Contains(filepath.ToSlash(path), "__tests__/") {
		return true
	}
	return strings.HasPrefix(lower, "test_") || strings.HasSuffix(strings.TrimSuffix(lower, filepath.Ext(lower)), "_test")
}

// isBarrelModule decides whether a file classified as a barrel candidate
// actually behaves like one: a file whose non-empty, non-comment lines are
// predominantly re-export statements (spec §4.4, >80% threshold).
func isBarrelModule(source []byte, language string) bool {
	lines := strings.Split(string(source), "\n")
	total := 0
	reexport := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed, language) {
			continue
		}
		total++
		if looksLikeReExport(trimmed, language) {
			reexport++
		}
	}
	if total == 0 {
		return false
	}
	return float64(reexport)/float64(total) > barrelReExportRatio
}

func isCommentLine(line, language string) bool {
	switch language {
	case "python":
		return strings.HasPrefix(line, "#")
	default:
		return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*")
	}
}

func looksLikeReExport(line, language string) bool {
	switch language {
	case "python":
		return strings.HasPrefix(line, "from ") && strings.Contains(line, "import")
	default: // javascript, typescript, tsx
		if strings.HasPrefix(line, "export") {
			return strings.Contains(line, "from ") || strings.Contains(line, "{") || strings.HasPrefix(line, "export *")
		}
		return false
	}
}

// barrelName derives a chunk name for a barrel module from its path, e.g.
// packages/ui/index.ts -> "ui", src/components/index.ts -> "components".
func barrelName(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" {
		return "root"
	}
	return filepath.Base(dir)
}
