package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunksKey_VariesWithSource(t *testing.T) {
	a := ChunksKey("x.py", []byte("one"))
	b := ChunksKey("x.py", []byte("two"))
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "chunks:x.py:")
}

func TestGraphTraverseKey_Shape(t *testing.T) {
	key := GraphTraverseKey("01234567-89ab-cdef", 2, "calls", "outbound")
	assert.Equal(t, "graph:01234567:hops2:calls:outbound", key)
}

func TestGraphTraverseKey_NilRelationIsAny(t *testing.T) {
	key := GraphTraverseKey("01234567-89ab-cdef", 2, "", "")
	assert.Equal(t, "graph:01234567:hops2:any", key)
}

func TestGraphPathKey_Shape(t *testing.T) {
	key := GraphPathKey("aaaaaaaa-0000", "bbbbbbbb-1111", "calls", 3)
	assert.Equal(t, "graph:path:aaaaaaaa:bbbbbbbb:calls:hops3", key)
}

func TestLSPTypeKey_NamespacedByLanguage(t *testing.T) {
	py := LSPTypeKey("", []byte("source"), 10)
	ts := LSPTypeKey("ts", []byte("source"), 10)

	assert.Contains(t, py, "lsp:type:")
	assert.Contains(t, ts, "lsp:ts:type:")
	assert.NotEqual(t, py, ts)
}

func TestRepoMetaKey_Shape(t *testing.T) {
	assert.Equal(t, "repo:meta:demo", RepoMetaKey("demo"))
}

func TestSearchKey_VariesWithFilters(t *testing.T) {
	a := SearchKey("find users", "repo=demo")
	b := SearchKey("find users", "repo=other")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "search:")
}
