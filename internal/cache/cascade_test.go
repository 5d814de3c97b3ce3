package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/model"
)

// TS05: Cascade round-trip — put then get with the same source hits L1.
func TestCascade_PutGet_L1Hit(t *testing.T) {
	c := NewCascade(NewL1(0), nil)
	chunks := []model.Chunk{{ID: "c1", Source: "s"}}

	c.PutChunks(context.Background(), "x.py", []byte("s"), chunks)

	got, ok := c.GetChunks(context.Background(), "x.py", []byte("s"))
	require.True(t, ok)
	assert.Equal(t, chunks, got)
}

func TestCascade_GetChunks_BothMissReturnsFalse(t *testing.T) {
	c := NewCascade(NewL1(0), nil)

	_, ok := c.GetChunks(context.Background(), "missing.py", []byte("s"))

	assert.False(t, ok, "caller should fall through to the database on a cascade miss")
}

func TestCascade_Invalidate_ClearsL1(t *testing.T) {
	c := NewCascade(NewL1(0), nil)
	c.PutChunks(context.Background(), "x.py", []byte("s"), []model.Chunk{{ID: "c1"}})

	c.Invalidate(context.Background(), "x.py")

	_, ok := c.GetChunks(context.Background(), "x.py", []byte("s"))
	assert.False(t, ok)
}

func TestCascade_InvalidateRepository_ClearsAllL1Entries(t *testing.T) {
	c := NewCascade(NewL1(0), nil)
	c.PutChunks(context.Background(), "a.py", []byte("s"), []model.Chunk{{ID: "a"}})
	c.PutChunks(context.Background(), "b.py", []byte("s"), []model.Chunk{{ID: "b"}})

	c.InvalidateRepository(context.Background())

	_, aOK := c.GetChunks(context.Background(), "a.py", []byte("s"))
	_, bOK := c.GetChunks(context.Background(), "b.py", []byte("s"))
	assert.False(t, aOK)
	assert.False(t, bOK)
}

func TestCascade_HitRate_CombinesL1AndL2(t *testing.T) {
	l1 := NewL1(0)
	c := NewCascade(l1, nil)
	c.PutChunks(context.Background(), "a.py", []byte("s"), []model.Chunk{{ID: "a"}})

	c.GetChunks(context.Background(), "a.py", []byte("s")) // L1 hit
	c.GetChunks(context.Background(), "b.py", []byte("s")) // L1 miss

	rate := c.HitRate(0.5)

	// L1 hit rate is 0.5 (1 hit, 1 miss); combined = 0.5 + 0.5*0.5 = 0.75
	assert.InDelta(t, 0.75, rate, 0.001)
}

func TestCascade_HitRate_ZeroWhenNoLookups(t *testing.T) {
	c := NewCascade(NewL1(0), nil)
	assert.Equal(t, 0.0, c.HitRate(0.5))
}
