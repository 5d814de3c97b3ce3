package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeintel/engine/internal/cache"
	"github.com/codeintel/engine/internal/model"
)

// Direction is the edge-following direction for Traverse (spec §4.11).
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// TraversalResult is one reachable node plus the smallest depth at which
// it was reached. The relation path that reached it is not returned.
type TraversalResult struct {
	Node  model.Node
	Depth int
}

// PathResult is one candidate route between two nodes, shortest first.
type PathResult struct {
	Nodes []model.Node
	Depth int
}

// Service wraps a Postgres connection pool and the L2 cache to implement
// graph traversal and path-finding (spec §4.11, C11).
type Service struct {
	pool *pgxpool.Pool
	l2   *cache.L2
	log  *slog.Logger
}

func NewService(pool *pgxpool.Pool, l2 *cache.L2, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{pool: pool, l2: l2, log: log}
}

// Traverse walks the graph outward (or inward) from startNodeID up to
// maxDepth hops, optionally restricted to one relation, via a depth-
// bounded recursive CTE. The start node itself is excluded and results
// are deduplicated by node id (spec §4.11). Results are cached in L2 for
// cache.TTLGraph.
func (s *Service) Traverse(ctx context.Context, startNodeID string, direction Direction, relation model.RelationKind, maxDepth int) ([]TraversalResult, error) {
	key := cache.GraphTraverseKey(startNodeID, maxDepth, string(relation), string(direction))
	var cached []TraversalResult
	if s.l2 != nil && s.l2.Get(ctx, key, &cached) {
		return cached, nil
	}

	query, args := traverseQuery(startNodeID, direction, relation, maxDepth)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("graph traverse: %w", err)
	}
	defer rows.Close()

	var out []TraversalResult
	for rows.Next() {
		var n model.Node
		var depth int
		var propsJSON []byte
		if err := rows.Scan(&n.ID, &n.Kind, &n.Label, &propsJSON, &n.CreatedAt, &depth); err != nil {
			return nil, fmt.Errorf("graph traverse scan: %w", err)
		}
		if err := unmarshalNodeProperties(propsJSON, &n.Properties); err != nil {
			return nil, err
		}
		out = append(out, TraversalResult{Node: n, Depth: depth})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph traverse rows: %w", err)
	}

	if s.l2 != nil {
		s.l2.Set(ctx, key, out, cache.TTLGraph)
	}
	return out, nil
}

// traverseQuery builds the outbound/inbound recursive CTE. The edge
// table column order flips for DirectionInbound so the same shape
// serves both directions without a CASE in the join condition.
func traverseQuery(startNodeID string, direction Direction, relation model.RelationKind, maxDepth int) (string, []any) {
	fromCol, toCol := "source", "target"
	if direction == DirectionInbound {
		fromCol, toCol = "target", "source"
	}

	relationFilter := ""
	args := []any{startNodeID, maxDepth}
	if relation != "" {
		relationFilter = "AND e.relation = $3"
		args = append(args, string(relation))
	}

	query := fmt.Sprintf(`
WITH RECURSIVE walk(node_id, depth, path) AS (
    SELECT e.%[1]s, 1, ARRAY[e.%[2]s]
    FROM edges e
    WHERE e.%[2]s = $1 %[3]s
    UNION
    SELECT e.%[1]s, w.depth + 1, w.path || e.%[2]s
    FROM edges e
    JOIN walk w ON e.%[2]s = w.node_id
    WHERE w.depth < $2 AND NOT e.%[1]s = ANY(w.path) %[3]s
)
SELECT DISTINCT ON (n.id) n.id, n.kind, n.label, n.properties, n.created_at, w.depth
FROM walk w
JOIN nodes n ON n.id = w.node_id
WHERE n.id != $1
ORDER BY n.id, w.depth ASC
`, toCol, fromCol, relationFilter)

	return query, args
}

// FindPath finds the shortest route between source and target, optionally
// restricted to one relation, up to maxDepth hops. The recursive CTE
// carries the full node path to prevent cycles (`NOT target = ANY(path)`)
// and results are ordered shortest-first (spec §4.11). Cached in L2 for
// cache.TTLGraph.
func (s *Service) FindPath(ctx context.Context, source, target string, relation model.RelationKind, maxDepth int) ([]PathResult, error) {
	key := cache.GraphPathKey(source, target, string(relation), maxDepth)
	var cached []PathResult
	if s.l2 != nil && s.l2.Get(ctx, key, &cached) {
		return cached, nil
	}

	relationFilter := ""
	args := []any{source, target, maxDepth}
	if relation != "" {
		relationFilter = "AND e.relation = $4"
		args = append(args, string(relation))
	}

	query := fmt.Sprintf(`
WITH RECURSIVE search_path(node_id, path, depth) AS (
    SELECT e.target, ARRAY[e.source, e.target], 1
    FROM edges e
    WHERE e.source = $1 %[1]s
    UNION ALL
    SELECT e.target, sp.path || e.target, sp.depth + 1
    FROM edges e
    JOIN search_path sp ON e.source = sp.node_id
    WHERE sp.depth < $3 AND NOT e.target = ANY(sp.path) %[1]s
)
SELECT path, depth
FROM search_path
WHERE node_id = $2
ORDER BY depth ASC
LIMIT 1
`, relationFilter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("graph find_path: %w", err)
	}
	defer rows.Close()

	var out []PathResult
	for rows.Next() {
		var nodeIDs []string
		var depth int
		if err := rows.Scan(&nodeIDs, &depth); err != nil {
			return nil, fmt.Errorf("graph find_path scan: %w", err)
		}
		nodes, err := s.loadNodes(ctx, nodeIDs)
		if err != nil {
			return nil, err
		}
		out = append(out, PathResult{Nodes: nodes, Depth: depth})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph find_path rows: %w", err)
	}

	if s.l2 != nil {
		s.l2.Set(ctx, key, out, cache.TTLGraph)
	}
	return out, nil
}

// loadNodes hydrates the path's node ids, in the order supplied, into
// full Node records for the caller's display.
func (s *Service) loadNodes(ctx context.Context, ids []string) ([]model.Node, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, kind, label, properties, created_at
FROM nodes
WHERE id = ANY($1)
`, ids)
	if err != nil {
		return nil, fmt.Errorf("graph load_nodes: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]model.Node, len(ids))
	for rows.Next() {
		var n model.Node
		var propsJSON []byte
		if err := rows.Scan(&n.ID, &n.Kind, &n.Label, &propsJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("graph load_nodes scan: %w", err)
		}
		if err := unmarshalNodeProperties(propsJSON, &n.Properties); err != nil {
			return nil, err
		}
		byID[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph load_nodes rows: %w", err)
	}

	ordered := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			ordered = append(ordered, n)
		}
	}
	return ordered, nil
}
