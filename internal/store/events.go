package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/codeintel/engine/internal/model"
)

// EventStore is the reserved legacy memory-as-event repository (spec §6:
// "reserved for legacy memory-as-event store"). It gives internal/model.Event
// a concrete persistence path, but SPEC_FULL.md §5 notes no write path is
// wired from the indexing pipeline — nothing in this repository calls Save
// today, and the spec marks the table legacy rather than load-bearing.
type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Save inserts one event row. Unreachable from any current operation —
// kept so a future legacy-import path has somewhere to write to.
func (s *EventStore) Save(ctx context.Context, e *model.Event) error {
	content, err := json.Marshal(e.Content)
	if err != nil {
		return fmt.Errorf("store: marshal event content %s: %w", e.ID, err)
	}
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("store: marshal event metadata %s: %w", e.ID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (id, content, metadata, embedding, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding
	`, e.ID, content, metadata, vectorOrNil(e.Embedding), e.Timestamp)
	if err != nil {
		return fmt.Errorf("store: save event %s: %w", e.ID, err)
	}
	return nil
}

// Get loads one event by id.
func (s *EventStore) Get(ctx context.Context, id string) (*model.Event, error) {
	var (
		e         model.Event
		content   []byte
		metadata  []byte
		embedding *pgvector.Vector
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, content, metadata, embedding, timestamp FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &content, &metadata, &embedding, &e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("store: get event %s: %w", id, err)
	}
	if err := json.Unmarshal(content, &e.Content); err != nil {
		return nil, fmt.Errorf("store: unmarshal event content %s: %w", id, err)
	}
	if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
		return nil, fmt.Errorf("store: unmarshal event metadata %s: %w", id, err)
	}
	if embedding != nil {
		e.Embedding = embedding.Slice()
	}
	return &e, nil
}
