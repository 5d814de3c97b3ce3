package store

import (
	_ "embed"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaDDL string

// Migrate applies the schema idempotently. Every statement is
// CREATE ... IF NOT EXISTS, so repeated calls across process restarts are
// safe — there is no migration version table to track (the schema has had
// one shape since C10/C11/C12 were specified).
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// EnsureRepository upserts the repository row the chunks/nodes/edges
// foreign keys reference, so a first-time index of a new repository
// doesn't fail on the FK constraint.
func EnsureRepository(ctx context.Context, pool *pgxpool.Pool, name, rootPath string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO repositories (name, root_path, indexed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET indexed_at = now()
	`, name, rootPath)
	if err != nil {
		return fmt.Errorf("store: ensure repository %q: %w", name, err)
	}
	return nil
}
