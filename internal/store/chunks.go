package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/codeintel/engine/internal/model"
	"github.com/codeintel/engine/internal/search"
)

// ChunkStore persists model.Chunk records and answers the three narrow
// interfaces internal/search declares (LexicalSearcher, VectorSearcher,
// ChunkLoader) against Postgres's pg_trgm and pgvector extensions.
type ChunkStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewChunkStore(pool *pgxpool.Pool, log *slog.Logger) *ChunkStore {
	if log == nil {
		log = slog.Default()
	}
	return &ChunkStore{pool: pool, log: log}
}

var (
	_ search.LexicalSearcher = (*ChunkStore)(nil)
	_ search.VectorSearcher  = (*ChunkStore)(nil)
	_ search.ChunkLoader     = (*ChunkStore)(nil)
)

// SaveChunks upserts chunks in a single transaction, one statement per
// chunk keyed on id (content-addressable, per model.Chunk's invariant).
func (s *ChunkStore) SaveChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: save chunks begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range chunks {
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("store: marshal metadata for chunk %s: %w", c.ID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO chunks (
				id, repository, file_path, language, kind, name, qualified_name,
				source, start_line, end_line, commit_hash, metadata,
				embedding_text, embedding_code, node_id, indexed_at, last_modified
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, now(), $16
			)
			ON CONFLICT (id) DO UPDATE SET
				file_path      = EXCLUDED.file_path,
				language       = EXCLUDED.language,
				kind           = EXCLUDED.kind,
				name           = EXCLUDED.name,
				qualified_name = EXCLUDED.qualified_name,
				source         = EXCLUDED.source,
				start_line     = EXCLUDED.start_line,
				end_line       = EXCLUDED.end_line,
				commit_hash    = EXCLUDED.commit_hash,
				metadata       = EXCLUDED.metadata,
				embedding_text = COALESCE(EXCLUDED.embedding_text, chunks.embedding_text),
				embedding_code = COALESCE(EXCLUDED.embedding_code, chunks.embedding_code),
				node_id        = EXCLUDED.node_id,
				indexed_at     = now(),
				last_modified  = EXCLUDED.last_modified
		`,
			c.ID, c.Repository, c.FilePath, c.Language, string(c.Kind), c.Name, c.QualifiedName,
			c.Source, c.StartLine, c.EndLine, c.CommitHash, metadata,
			vectorOrNil(c.EmbeddingText), vectorOrNil(c.EmbeddingCode), c.NodeID, c.LastModified,
		)
		if err != nil {
			return fmt.Errorf("store: upsert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: save chunks commit: %w", err)
	}
	return nil
}

// LoadChunks hydrates a fused result's chunk IDs into full records,
// implementing search.ChunkLoader.
func (s *ChunkStore) LoadChunks(ctx context.Context, ids []string) (map[string]*model.Chunk, error) {
	if len(ids) == 0 {
		return map[string]*model.Chunk{}, nil
	}

	rows, err := s.pool.Query(ctx, chunkSelectColumns+` FROM chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("store: load chunks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*model.Chunk, len(ids))
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// GetChunksByFile returns every chunk belonging to one file, used by the
// index orchestrator to re-chunk incrementally and by graph construction
// to scope a single file's call graph.
func (s *ChunkStore) GetChunksByFile(ctx context.Context, repository, filePath string) ([]*model.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		chunkSelectColumns+` FROM chunks WHERE repository = $1 AND file_path = $2 ORDER BY start_line`,
		repository, filePath)
	if err != nil {
		return nil, fmt.Errorf("store: get chunks by file: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListRepositoryChunks returns every chunk in a repository, the input
// graph.Construct needs to build the full call/import graph (spec §4.10).
func (s *ChunkStore) ListRepositoryChunks(ctx context.Context, repository string) ([]*model.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		chunkSelectColumns+` FROM chunks WHERE repository = $1 ORDER BY file_path, start_line`,
		repository)
	if err != nil {
		return nil, fmt.Errorf("store: list repository chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// DeleteChunksByFile removes every chunk for a file, used when a file is
// deleted or moved out of the indexed tree.
func (s *ChunkStore) DeleteChunksByFile(ctx context.Context, repository, filePath string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE repository = $1 AND file_path = $2`, repository, filePath)
	if err != nil {
		return fmt.Errorf("store: delete chunks by file: %w", err)
	}
	return nil
}

// SearchLexical runs the trigram-similarity + ILIKE substring query
// implementing search.LexicalSearcher (spec §4.12 step 3, "Lexical").
func (s *ChunkStore) SearchLexical(ctx context.Context, repository, query string, poolSize int) ([]search.LexicalHit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, similarity(source, $2) + similarity(name, $2) AS score
		FROM chunks
		WHERE repository = $1
		  AND (source % $2 OR name % $2 OR source ILIKE '%' || $2 || '%')
		ORDER BY score DESC
		LIMIT $3
	`, repository, query, poolSize)
	if err != nil {
		return nil, fmt.Errorf("store: search lexical: %w", err)
	}
	defer rows.Close()

	var hits []search.LexicalHit
	for rows.Next() {
		var h search.LexicalHit
		if err := rows.Scan(&h.ChunkID, &h.Score); err != nil {
			return nil, fmt.Errorf("store: scan lexical hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// SearchVector runs the cosine-distance HNSW query against whichever
// embedding column the caller selects, implementing search.VectorSearcher
// (spec §4.12 step 3, "Vector").
func (s *ChunkStore) SearchVector(ctx context.Context, repository string, embedding []float32, domain search.EmbeddingDomain, poolSize int) ([]search.VectorHit, error) {
	column := "embedding_text"
	if domain == search.EmbeddingDomainCode {
		column = "embedding_code"
	}

	query := fmt.Sprintf(`
		SELECT id, 1 - (%s <=> $2) AS score
		FROM chunks
		WHERE repository = $1 AND %s IS NOT NULL
		ORDER BY %s <=> $2
		LIMIT $3
	`, column, column, column)

	rows, err := s.pool.Query(ctx, query, repository, pgvector.NewVector(embedding), poolSize)
	if err != nil {
		return nil, fmt.Errorf("store: search vector: %w", err)
	}
	defer rows.Close()

	var hits []search.VectorHit
	for rows.Next() {
		var h search.VectorHit
		if err := rows.Scan(&h.ChunkID, &h.Score); err != nil {
			return nil, fmt.Errorf("store: scan vector hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

const chunkSelectColumns = `
	SELECT id, repository, file_path, language, kind, name, qualified_name,
	       source, start_line, end_line, commit_hash, metadata,
	       embedding_text, embedding_code, node_id, indexed_at, last_modified
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*model.Chunk, error) {
	var c model.Chunk
	var kind string
	var metadata []byte
	var embText, embCode *pgvector.Vector

	if err := row.Scan(
		&c.ID, &c.Repository, &c.FilePath, &c.Language, &kind, &c.Name, &c.QualifiedName,
		&c.Source, &c.StartLine, &c.EndLine, &c.CommitHash, &metadata,
		&embText, &embCode, &c.NodeID, &c.IndexedAt, &c.LastModified,
	); err != nil {
		return nil, fmt.Errorf("store: scan chunk: %w", err)
	}

	c.Kind = model.ChunkKind(kind)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("store: unmarshal metadata for chunk %s: %w", c.ID, err)
		}
	}
	if embText != nil {
		c.EmbeddingText = embText.Slice()
	}
	if embCode != nil {
		c.EmbeddingCode = embCode.Slice()
	}
	return &c, nil
}

func scanChunks(rows pgx.Rows) ([]*model.Chunk, error) {
	var out []*model.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// vectorOrNil adapts a possibly-empty embedding to the nullable vector
// column: an unset embedding (len 0, not yet computed) stores as SQL NULL
// rather than a zero vector, matching model.Chunk's invariant.
func vectorOrNil(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}
