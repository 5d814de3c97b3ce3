package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Key builders for the namespaced L2 key families (spec §4.2).

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ChunksKey builds the `chunks:<path>:<short-hash>` key used by Cascade.
func ChunksKey(path string, source []byte) string {
	h := md5.Sum(source)
	return fmt.Sprintf("chunks:%s:%s", path, hex.EncodeToString(h[:])[:12])
}

// ChunksPattern is the glob matching every chunks key for a file path,
// used by Cascade.Invalidate since the hash suffix is unknown to the
// caller.
func ChunksPattern(path string) string {
	return fmt.Sprintf("chunks:%s:*", path)
}

// RepositoryChunksPattern matches every chunks key regardless of path,
// used by Cascade.InvalidateRepository.
const RepositoryChunksPattern = "chunks:*"

// SearchKey builds the `search:<short-hash>` key, the first 12 hex digits
// of md5(query + "|" + filters).
func SearchKey(query string, filters string) string {
	return "search:" + shortHash(query+"|"+filters)
}

// GraphTraverseKey builds the `graph:<short-node-id>:hops<N>:<relations>[:direction]` key.
func GraphTraverseKey(nodeID string, maxDepth int, relation, direction string) string {
	key := fmt.Sprintf("graph:%s:hops%d:%s", shortNodeID(nodeID), maxDepth, relationOrAny(relation))
	if direction != "" {
		key += ":" + direction
	}
	return key
}

// GraphPathKey builds the `graph:path:<src>:<dst>:<rel>:hops<N>` key.
func GraphPathKey(src, dst, relation string, maxDepth int) string {
	return fmt.Sprintf("graph:path:%s:%s:%s:hops%d", shortNodeID(src), shortNodeID(dst), relationOrAny(relation), maxDepth)
}

// RepoMetaKey builds the `repo:meta:<name>` key.
func RepoMetaKey(repository string) string {
	return "repo:meta:" + repository
}

// LSPTypeKey builds the `lsp:type:<content-hash>:<line>` /
// `lsp:ts:type:<content-hash>:<line>` key, languageNS is "" for the
// default (Python) namespace or "ts" for the TypeScript namespace.
func LSPTypeKey(languageNS string, source []byte, line int) string {
	h := md5.Sum(source)
	hash := hex.EncodeToString(h[:])[:12]
	if languageNS == "" {
		return fmt.Sprintf("lsp:type:%s:%d", hash, line)
	}
	return fmt.Sprintf("lsp:%s:type:%s:%d", languageNS, hash, line)
}

func shortNodeID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func relationOrAny(relation string) string {
	if relation == "" {
		return "any"
	}
	return relation
}
