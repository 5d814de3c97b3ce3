// Package store is the Postgres persistence layer for chunks, graph nodes
// and edges, and index bookkeeping (spec §3, §4.10-§4.12). It replaces the
// teacher's embedded SQLite/BM25/HNSW stack with jackc/pgx/v5 and
// pgvector/pgvector-go against a real Postgres instance, matching
// SPEC_FULL.md's domain-stack wiring.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultMaxConns bounds the pool the way the teacher's SQLiteBM25Index
// pins a single writer connection; Postgres tolerates concurrent readers,
// so this is a ceiling rather than a single-connection lock.
const DefaultMaxConns = 10

// NewPool opens a pgxpool against dsn and registers the pgvector codec on
// every connection so []float32 round-trips through the vector(768)
// columns without manual encoding.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}
