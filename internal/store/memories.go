package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/codeintel/engine/internal/model"
	"github.com/codeintel/engine/internal/search"
)

// MemoryStore persists model.Memory records and implements
// internal/search's MemoryEngine interfaces, the same role ChunkStore
// plays for code chunks (SPEC_FULL.md §5 MemoryEngine).
type MemoryStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewMemoryStore(pool *pgxpool.Pool, log *slog.Logger) *MemoryStore {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryStore{pool: pool, log: log}
}

var (
	_ search.MemoryLexicalSearcher = (*MemoryStore)(nil)
	_ search.MemoryVectorSearcher  = (*MemoryStore)(nil)
	_ search.MemoryLoader          = (*MemoryStore)(nil)
)

// Save upserts one memory record (spec §3 "Memory record").
func (s *MemoryStore) Save(ctx context.Context, m *model.Memory) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("store: marshal memory tags %s: %w", m.ID, err)
	}
	related, err := json.Marshal(m.RelatedChunks)
	if err != nil {
		return fmt.Errorf("store: marshal memory related_chunks %s: %w", m.ID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO memories (id, project_id, title, content, memory_type, tags, author,
		                       related_chunks, embedding, embedding_model, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now(), $11)
		ON CONFLICT (id) DO UPDATE SET
			title           = EXCLUDED.title,
			content         = EXCLUDED.content,
			memory_type     = EXCLUDED.memory_type,
			tags            = EXCLUDED.tags,
			author          = EXCLUDED.author,
			related_chunks  = EXCLUDED.related_chunks,
			embedding       = COALESCE(EXCLUDED.embedding, memories.embedding),
			embedding_model = EXCLUDED.embedding_model,
			updated_at      = now(),
			deleted_at      = EXCLUDED.deleted_at
	`, m.ID, m.ProjectID, m.Title, m.Content, string(m.Type), tags, m.Author,
		related, vectorOrNil(m.Embedding), m.EmbeddingModel, m.DeletedAt)
	if err != nil {
		return fmt.Errorf("store: save memory %s: %w", m.ID, err)
	}
	return nil
}

// SoftDelete marks a memory deleted without removing the row (spec §3
// invariant: "a soft delete must precede any permanent deletion").
func (s *MemoryStore) SoftDelete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE memories SET deleted_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: soft delete memory %s: %w", id, err)
	}
	return nil
}

func (s *MemoryStore) SearchMemoryLexical(ctx context.Context, projectID, query string, poolSize int) ([]search.LexicalHit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, similarity(content, $2) + similarity(title, $2) AS score
		FROM memories
		WHERE ($1 = '' OR project_id = $1)
		  AND deleted_at IS NULL
		  AND (content % $2 OR title % $2 OR content ILIKE '%' || $2 || '%')
		ORDER BY score DESC
		LIMIT $3
	`, projectID, query, poolSize)
	if err != nil {
		return nil, fmt.Errorf("store: search memory lexical: %w", err)
	}
	defer rows.Close()

	var hits []search.LexicalHit
	for rows.Next() {
		var h search.LexicalHit
		if err := rows.Scan(&h.ChunkID, &h.Score); err != nil {
			return nil, fmt.Errorf("store: scan memory lexical hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *MemoryStore) SearchMemoryVector(ctx context.Context, projectID string, embedding []float32, poolSize int) ([]search.VectorHit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, 1 - (embedding <=> $2) AS score
		FROM memories
		WHERE ($1 = '' OR project_id = $1)
		  AND deleted_at IS NULL
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, projectID, pgvector.NewVector(embedding), poolSize)
	if err != nil {
		return nil, fmt.Errorf("store: search memory vector: %w", err)
	}
	defer rows.Close()

	var hits []search.VectorHit
	for rows.Next() {
		var h search.VectorHit
		if err := rows.Scan(&h.ChunkID, &h.Score); err != nil {
			return nil, fmt.Errorf("store: scan memory vector hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *MemoryStore) LoadMemories(ctx context.Context, ids []string) (map[string]*model.Memory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, title, content, memory_type, tags, author,
		       related_chunks, embedding, embedding_model, created_at, updated_at, deleted_at
		FROM memories
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("store: load memories: %w", err)
	}
	defer rows.Close()

	out := map[string]*model.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	var (
		m             model.Memory
		memoryType    string
		tags          []byte
		relatedChunks []byte
		embedding     *pgvector.Vector
		deletedAt     *time.Time
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Content, &memoryType, &tags, &m.Author,
		&relatedChunks, &embedding, &m.EmbeddingModel, &m.CreatedAt, &m.UpdatedAt, &deletedAt); err != nil {
		return nil, fmt.Errorf("store: scan memory: %w", err)
	}
	m.Type = model.MemoryType(memoryType)
	m.DeletedAt = deletedAt
	if err := json.Unmarshal(tags, &m.Tags); err != nil {
		return nil, fmt.Errorf("store: unmarshal memory tags %s: %w", m.ID, err)
	}
	if err := json.Unmarshal(relatedChunks, &m.RelatedChunks); err != nil {
		return nil, fmt.Errorf("store: unmarshal memory related_chunks %s: %w", m.ID, err)
	}
	if embedding != nil {
		m.Embedding = embedding.Slice()
	}
	return &m, nil
}
