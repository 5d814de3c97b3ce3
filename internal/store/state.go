package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StateStore is a per-repository key/value table in the role the
// teacher's MetadataStore.GetState/SetState played (embedding-dimension
// guard, resumable-indexing checkpoints), scoped per repository instead
// of per single-project SQLite file. No command or pipeline stage in this
// repository constructs it or reads or writes the table.
type StateStore struct {
	pool *pgxpool.Pool
}

func NewStateStore(pool *pgxpool.Pool) *StateStore {
	return &StateStore{pool: pool}
}

func (s *StateStore) Get(ctx context.Context, repository, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM index_state WHERE repository = $1 AND key = $2`,
		repository, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get state %s/%s: %w", repository, key, err)
	}
	return value, nil
}

func (s *StateStore) Set(ctx context.Context, repository, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO index_state (repository, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (repository, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, repository, key, value)
	if err != nil {
		return fmt.Errorf("store: set state %s/%s: %w", repository, key, err)
	}
	return nil
}
