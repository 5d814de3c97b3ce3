package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeintel/engine/internal/graph"
	"github.com/codeintel/engine/internal/model"
)

// GraphStore persists the in-memory graph.BuildResult that graph.Construct
// produces (spec §4.10, C10) so internal/graph's Traverse/FindPath — which
// read nodes/edges directly off the same pool — can see it.
type GraphStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewGraphStore(pool *pgxpool.Pool, log *slog.Logger) *GraphStore {
	if log == nil {
		log = slog.Default()
	}
	return &GraphStore{pool: pool, log: log}
}

// SaveGraph replaces a repository's nodes and edges with the ones
// graph.Construct produced. Edges are deleted before nodes are replaced
// (FK on nodes) and reinserted after, since node ids are stable content
// hashes but a re-run may drop nodes whose chunk disappeared.
func (s *GraphStore) SaveGraph(ctx context.Context, repository string, result graph.BuildResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: save graph begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM edges WHERE repository = $1`, repository); err != nil {
		return fmt.Errorf("store: clear edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM nodes WHERE repository = $1`, repository); err != nil {
		return fmt.Errorf("store: clear nodes: %w", err)
	}

	for _, n := range result.Nodes {
		props, err := json.Marshal(n.Properties)
		if err != nil {
			return fmt.Errorf("store: marshal node properties %s: %w", n.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO nodes (id, repository, kind, label, properties, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
		`, n.ID, repository, string(n.Kind), n.Label, props)
		if err != nil {
			return fmt.Errorf("store: insert node %s: %w", n.ID, err)
		}
	}

	for _, e := range result.Edges {
		props, err := json.Marshal(e.Properties)
		if err != nil {
			return fmt.Errorf("store: marshal edge properties %s: %w", e.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO edges (id, repository, source, target, relation, properties, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
		`, e.ID, repository, e.Source, e.Target, string(e.Relation), props)
		if err != nil {
			return fmt.Errorf("store: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: save graph commit: %w", err)
	}
	return nil
}

// LinkChunkNode stamps a chunk's node_id once its node has been persisted,
// so a later ChunkLoader read can resolve straight to the graph node.
func (s *GraphStore) LinkChunkNode(ctx context.Context, chunkID, nodeID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE chunks SET node_id = $2 WHERE id = $1`, chunkID, nodeID)
	if err != nil {
		return fmt.Errorf("store: link chunk node: %w", err)
	}
	return nil
}

// GraphConstructor adapts ChunkStore and GraphStore to internal/batch's
// GraphTrigger interface, so a Consumer can be wired to rebuild the graph
// after a repository's batches finish (spec §4.9).
type GraphConstructor struct {
	Chunks *ChunkStore
	Graphs *GraphStore
}

func (g *GraphConstructor) TriggerGraphConstruction(ctx context.Context, repository string) error {
	_, err := ConstructAndSave(ctx, g.Chunks, g.Graphs, repository)
	return err
}

// ConstructAndSave runs graph.Construct over every chunk currently stored
// for repository and persists the result in one call (spec §4.9's
// "trigger graph construction"). GraphConstructor.TriggerGraphConstruction
// is its only caller; internal/index does not call it.
func ConstructAndSave(ctx context.Context, chunks *ChunkStore, graphs *GraphStore, repository string) (model.GraphStats, error) {
	all, err := chunks.ListRepositoryChunks(ctx, repository)
	if err != nil {
		return model.GraphStats{}, fmt.Errorf("store: construct graph: %w", err)
	}

	plain := make([]model.Chunk, len(all))
	for i, c := range all {
		plain[i] = *c
	}

	result := graph.Construct(repository, plain)
	if err := graphs.SaveGraph(ctx, repository, result); err != nil {
		return model.GraphStats{}, err
	}
	return result.Stats, nil
}
