package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default TTLs per key family (spec §4.2).
const (
	TTLSearch    = 30 * time.Second
	TTLGraph     = 120 * time.Second
	TTLChunks    = 300 * time.Second
	TTLLSPType   = 300 * time.Second
	DefaultPoolSize = 20
)

// L2 is the shared, TTL-bounded key/value cache backed by Redis (spec
// §4.2). Every operation degrades gracefully to a no-op on connection
// failure and increments an error counter rather than propagating the
// failure to the caller (spec §7 "cache failure").
type L2 struct {
	client *redis.Client
	log    *slog.Logger
	errors int64
}

// NewL2 builds an L2 cache from a redis:// URL. Pool size is capped at
// DefaultPoolSize regardless of the URL's own pool_size query param.
func NewL2(redisURL string, log *slog.Logger) (*L2, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = DefaultPoolSize
	if log == nil {
		log = slog.Default()
	}
	return &L2{client: redis.NewClient(opts), log: log}, nil
}

// NewL2FromClient wraps an already-constructed client, for tests.
func NewL2FromClient(client *redis.Client, log *slog.Logger) *L2 {
	if log == nil {
		log = slog.Default()
	}
	return &L2{client: client, log: log}
}

// Get reads and JSON-decodes the value stored at key into dst. Returns
// false on miss, connection failure, or decode failure (logged, not
// propagated).
func (l *L2) Get(ctx context.Context, key string, dst any) bool {
	raw, err := l.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.errors++
			l.log.Warn("cache l2 get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		l.log.Warn("cache l2 decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Set JSON-encodes value and stores it at key with the given TTL via
// SETEX. Failures degrade to a silent no-op.
func (l *L2) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		l.log.Warn("cache l2 encode failed", "key", key, "error", err)
		return
	}
	if err := l.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		l.errors++
		l.log.Warn("cache l2 set failed", "key", key, "error", err)
	}
}

// Delete removes a single key.
func (l *L2) Delete(ctx context.Context, key string) {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		l.errors++
		l.log.Warn("cache l2 delete failed", "key", key, "error", err)
	}
}

// FlushPattern deletes every key matching glob via iterative SCAN + DEL,
// never KEYS (which would block Redis on a large keyspace).
func (l *L2) FlushPattern(ctx context.Context, glob string) {
	iter := l.client.Scan(ctx, 0, glob, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			l.client.Del(ctx, batch...)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		l.errors++
		l.log.Warn("cache l2 scan failed", "pattern", glob, "error", err)
		return
	}
	if len(batch) > 0 {
		l.client.Del(ctx, batch...)
	}
}

// Errors reports the cumulative count of degraded operations.
func (l *L2) Errors() int64 { return l.errors }

// Close releases the underlying connection pool.
func (l *L2) Close() error { return l.client.Close() }
