package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// QualifiedName generates the dot-joined hierarchical path spec §4.10
// describes as a "separate, deterministic utility used during chunking
// or as a backfill": from a language-appropriate source root (a leading
// `src/` segment is stripped when present) through the relative directory
// path (extension and `.` replaced), any enclosing class/namespace
// scopes, ending in the chunk's own simple name. Empty names fall back to
// `anonymous_<kind>_<short-id>` so a backfill pass is idempotent even for
// unnamed chunks (spec §8 "running the qualified-name backfill twice is
// idempotent").
func QualifiedName(chunkName, filePath, repositoryRoot string, parentContext []string, kind string) string {
	rel := strings.TrimPrefix(filePath, repositoryRoot)
	rel = strings.TrimPrefix(rel, "/")
	rel = path.Clean(path.ToSlash(rel))
	rel = strings.TrimPrefix(rel, "src/")

	ext := path.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	modulePath := strings.ReplaceAll(stem, "/", ".")
	modulePath = strings.ReplaceAll(modulePath, ".", ".")

	segs := make([]string, 0, len(parentContext)+2)
	if modulePath != "" {
		segs = append(segs, modulePath)
	}
	segs = append(segs, parentContext...)

	name := chunkName
	if name == "" {
		name = anonymousName(kind, filePath, parentContext)
	}
	segs = append(segs, name)

	return strings.Join(segs, ".")
}

// anonymousName synthesizes a stable, content-derived name for a chunk
// with no recoverable symbol name, so repeated backfill runs produce the
// same id (spec §8 idempotence property).
func anonymousName(kind, filePath string, parentContext []string) string {
	seed := filePath + "|" + strings.Join(parentContext, ".")
	sum := sha256.Sum256([]byte(seed))
	shortID := hex.EncodeToString(sum[:])[:8]
	if kind == "" {
		kind = "chunk"
	}
	return "anonymous_" + kind + "_" + shortID
}
