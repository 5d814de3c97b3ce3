// Package cache implements the three-tier chunk cache from spec §4.1–4.3:
// an in-process content-hash-guarded LRU (L1), a Redis-backed namespaced
// TTL store (L2), and a Cascade that composes the two behind a single
// chunk-cache interface.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codeintel/engine/internal/model"
)

// DefaultL1CapBytes is the default total byte footprint the L1 cache will
// hold before it starts evicting least-recently-used entries (spec §4.1).
const DefaultL1CapBytes = 100 * 1024 * 1024

// l1Entry is the value stored per path: the chunk list plus the content
// hash it was computed against, so a later get() can detect a stale file.
type l1Entry struct {
	hash   [16]byte
	chunks []model.Chunk
	size   int
}

// L1Stats reports hit/miss/eviction counters and current size (spec §4.1).
type L1Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int
}

// L1 is the content-addressed, in-process chunk cache. It is the
// exclusive owner of its state per process (spec §5 "Shared resources
// and locking") — it does not need its own mutex because golang-lru/v2
// is already internally synchronized.
type L1 struct {
	cache   *lru.Cache[string, *l1Entry]
	capByte int

	hits      int64
	misses    int64
	evictions int64
	bytes     int
}

// NewL1 creates an L1 cache. capBytes <= 0 uses DefaultL1CapBytes. The
// underlying LRU is sized generously (entry count is not the real limit;
// byte footprint, tracked separately, is) since golang-lru/v2 requires a
// positive capacity up front.
func NewL1(capBytes int) *L1 {
	if capBytes <= 0 {
		capBytes = DefaultL1CapBytes
	}
	l := &L1{capByte: capBytes}
	c, _ := lru.NewWithEvict[string, *l1Entry](1<<20, l.onEvict)
	l.cache = c
	return l
}

func (l *L1) onEvict(_ string, entry *l1Entry) {
	l.bytes -= entry.size
	l.evictions++
}

// Get returns the cached chunk list for path iff the stored content hash
// equals md5(source); otherwise it invalidates the stale entry and
// reports a miss (spec §4.1, §8 "cache.get(path, source) returns None
// whenever the stored hash != MD5(source)").
func (l *L1) Get(path string, source []byte) ([]model.Chunk, bool) {
	entry, ok := l.cache.Get(path)
	if !ok {
		l.misses++
		return nil, false
	}
	if entry.hash != contentHash(source) {
		l.cache.Remove(path)
		l.misses++
		return nil, false
	}
	l.hits++
	return entry.chunks, true
}

// Put stores the chunk list for path, fingerprinted against source, and
// evicts least-recently-used entries until the tracked byte footprint is
// back under the configured cap.
func (l *L1) Put(path string, source []byte, chunks []model.Chunk) {
	size := estimateSize(chunks)
	entry := &l1Entry{hash: contentHash(source), chunks: chunks, size: size}

	if old, ok := l.cache.Peek(path); ok {
		l.bytes -= old.size
	}
	l.bytes += size
	l.cache.Add(path, entry)

	for l.bytes > l.capByte && l.cache.Len() > 0 {
		if _, _, ok := l.cache.RemoveOldest(); !ok {
			break
		}
	}
}

// Invalidate removes a single path's entry.
func (l *L1) Invalidate(path string) {
	l.cache.Remove(path)
}

// Clear drops every cached entry.
func (l *L1) Clear() {
	l.cache.Purge()
	l.bytes = 0
}

// Stats reports the current hit/miss/eviction counters and size.
func (l *L1) Stats() L1Stats {
	return L1Stats{
		Hits:      l.hits,
		Misses:    l.misses,
		Evictions: l.evictions,
		Entries:   l.cache.Len(),
		Bytes:     l.bytes,
	}
}

// estimateSize approximates a chunk list's byte footprint from its source
// text and the two 768-wide embedding vectors (4 bytes per float32).
func estimateSize(chunks []model.Chunk) int {
	n := 0
	for _, c := range chunks {
		n += len(c.Source)
		n += len(c.EmbeddingText) * 4
		n += len(c.EmbeddingCode) * 4
	}
	return n
}
