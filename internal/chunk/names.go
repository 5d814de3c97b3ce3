package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// qualifiedModulePath derives the dot-joined module path prefix for a file,
// e.g. "api/services/user_service.py" -> "api.services.user_service". It is
// the root of every chunk's hierarchical qualified name (spec §3, §4.10).
func qualifiedModulePath(path string) string {
	clean := filepath.ToSlash(path)
	clean = strings.TrimSuffix(clean, filepath.Ext(clean))
	clean = strings.TrimPrefix(clean, "./")
	parts := strings.Split(clean, "/")
	return strings.Join(parts, ".")
}

// qualifiedName joins a file's module path with any enclosing scopes
// (outer class/namespace names) and the unit's own name.
func qualifiedName(filePath string, enclosing []string, name string) string {
	segs := append([]string{qualifiedModulePath(filePath)}, enclosing...)
	segs = append(segs, name)
	return strings.Join(segs, ".")
}

// contentChunkID generates a content-addressable chunk id: stable across
// line shifts that don't change the chunk's text, so re-chunking an
// untouched symbol after a sibling edit doesn't churn its embedding/cache
// entry.
func contentChunkID(filePath, content string) string {
	contentHash := sha256.Sum256([]byte(content))
	contentPrefix := hex.EncodeToString(contentHash[:])[:16]
	id := sha256.Sum256([]byte(filePath + ":" + contentPrefix))
	return hex.EncodeToString(id[:])[:16]
}
