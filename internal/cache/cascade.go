package cache

import (
	"context"

	"github.com/codeintel/engine/internal/model"
)

// cascadeEntry is the JSON shape stored in L2 for a chunk list, since
// model.Chunk's embedding vectors round-trip through JSON float arrays.
type cascadeEntry struct {
	Chunks []model.Chunk `json:"chunks"`
}

// Cascade presents a single chunk-cache interface over L1 and L2 with
// automatic promotion from L2 to L1 on an L2 hit (spec §4.3).
type Cascade struct {
	l1 *L1
	l2 *L2
}

// NewCascade composes an L1 and an L2 into one chunk-cache interface. l2
// may be nil, in which case the cascade degrades to L1-only.
func NewCascade(l1 *L1, l2 *L2) *Cascade {
	return &Cascade{l1: l1, l2: l2}
}

// GetChunks checks L1 first; on miss it checks L2 (keyed by
// `chunks:<path>:<md5>`); on an L2 hit it promotes the result into L1.
// On both-miss it returns ok=false, signaling the caller to query the
// database.
func (c *Cascade) GetChunks(ctx context.Context, path string, source []byte) ([]model.Chunk, bool) {
	if chunks, ok := c.l1.Get(path, source); ok {
		return chunks, true
	}
	if c.l2 == nil {
		return nil, false
	}
	var entry cascadeEntry
	if !c.l2.Get(ctx, ChunksKey(path, source), &entry) {
		return nil, false
	}
	c.l1.Put(path, source, entry.Chunks)
	return entry.Chunks, true
}

// PutChunks writes through to both layers.
func (c *Cascade) PutChunks(ctx context.Context, path string, source []byte, chunks []model.Chunk) {
	c.l1.Put(path, source, chunks)
	if c.l2 != nil {
		c.l2.Set(ctx, ChunksKey(path, source), cascadeEntry{Chunks: chunks}, TTLChunks)
	}
}

// Invalidate clears L1's entry for path and every L2 variant of the
// file's key (the hash suffix varies with content, so the L2 lookup
// uses a pattern scan rather than a single key delete).
func (c *Cascade) Invalidate(ctx context.Context, path string) {
	c.l1.Invalidate(path)
	if c.l2 != nil {
		c.l2.FlushPattern(ctx, ChunksPattern(path))
	}
}

// InvalidateRepository flushes L1 entirely and the L2 `chunks:*` pattern.
func (c *Cascade) InvalidateRepository(ctx context.Context) {
	c.l1.Clear()
	if c.l2 != nil {
		c.l2.FlushPattern(ctx, RepositoryChunksPattern)
	}
}

// HitRate reports the combined hit rate L1 + (1 - L1) * L2 (spec §4.3).
// l2HitRate is supplied by the caller since L2 (being a best-effort,
// shared, multi-process cache) does not track per-process hit/miss
// counters the way L1 does.
func (c *Cascade) HitRate(l2HitRate float64) float64 {
	stats := c.l1.Stats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0
	}
	l1Rate := float64(stats.Hits) / float64(total)
	return l1Rate + (1-l1Rate)*l2HitRate
}
