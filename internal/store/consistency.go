package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeintel/engine/internal/model"
)

// InconsistencyType categorizes one detected invariant violation
// (SPEC_FULL.md §5 "Consistency checker", grounded on the teacher's
// internal/index/consistency.go orphan/missing classification, adapted
// to the invariants spec §8 actually names: embedding dimensionality,
// start/end line bounds, edge endpoint existence).
type InconsistencyType int

const (
	InconsistencyBadEmbeddingDimension InconsistencyType = iota
	InconsistencyBadLineRange
	InconsistencyDanglingEdgeEndpoint
)

func (t InconsistencyType) String() string {
	switch t {
	case InconsistencyBadEmbeddingDimension:
		return "bad_embedding_dimension"
	case InconsistencyBadLineRange:
		return "bad_line_range"
	case InconsistencyDanglingEdgeEndpoint:
		return "dangling_edge_endpoint"
	default:
		return "unknown"
	}
}

// Inconsistency is one violation found by CheckConsistency.
type Inconsistency struct {
	Type    InconsistencyType
	ID      string
	Details string
}

// ConsistencyResult is the outcome of a read-only consistency pass.
type ConsistencyResult struct {
	ChunksChecked int
	EdgesChecked  int
	Issues        []Inconsistency
	Duration      time.Duration
}

// CheckConsistency verifies the invariants spec §8 states for stored
// chunks and graph edges, exposed via `cicli doctor`
// (SPEC_FULL.md §5). It is read-only — repairing a violation means
// re-indexing the affected file, not patching rows in place.
func CheckConsistency(ctx context.Context, pool *pgxpool.Pool, repository string) (ConsistencyResult, error) {
	start := time.Now()
	result := ConsistencyResult{}

	rows, err := pool.Query(ctx, `
		SELECT id, start_line, end_line,
		       CASE WHEN embedding_text IS NULL THEN 0 ELSE vector_dims(embedding_text) END,
		       CASE WHEN embedding_code IS NULL THEN 0 ELSE vector_dims(embedding_code) END
		FROM chunks
		WHERE repository = $1
	`, repository)
	if err != nil {
		return result, fmt.Errorf("store: check consistency, query chunks: %w", err)
	}
	for rows.Next() {
		var (
			id                 string
			startLine, endLine int
			textDims, codeDims int
		)
		if err := rows.Scan(&id, &startLine, &endLine, &textDims, &codeDims); err != nil {
			rows.Close()
			return result, fmt.Errorf("store: check consistency, scan chunk: %w", err)
		}
		result.ChunksChecked++

		if startLine < 1 || endLine < startLine {
			result.Issues = append(result.Issues, Inconsistency{
				Type: InconsistencyBadLineRange, ID: id,
				Details: fmt.Sprintf("start_line=%d end_line=%d", startLine, endLine),
			})
		}
		if textDims != 0 && textDims != model.EmbeddingDimensions {
			result.Issues = append(result.Issues, Inconsistency{
				Type: InconsistencyBadEmbeddingDimension, ID: id,
				Details: fmt.Sprintf("embedding_text has %d dimensions, want %d", textDims, model.EmbeddingDimensions),
			})
		}
		if codeDims != 0 && codeDims != model.EmbeddingDimensions {
			result.Issues = append(result.Issues, Inconsistency{
				Type: InconsistencyBadEmbeddingDimension, ID: id,
				Details: fmt.Sprintf("embedding_code has %d dimensions, want %d", codeDims, model.EmbeddingDimensions),
			})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return result, fmt.Errorf("store: check consistency, iterate chunks: %w", err)
	}
	rows.Close()

	edgeRows, err := pool.Query(ctx, `
		SELECT e.id, e.source, e.target,
		       (SELECT count(*) FROM nodes n WHERE n.id = e.source) = 0 AS source_missing,
		       (SELECT count(*) FROM nodes n WHERE n.id = e.target) = 0 AS target_missing
		FROM edges e
		WHERE e.repository = $1
	`, repository)
	if err != nil {
		return result, fmt.Errorf("store: check consistency, query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var (
			id, source, target           string
			sourceMissing, targetMissing bool
		)
		if err := edgeRows.Scan(&id, &source, &target, &sourceMissing, &targetMissing); err != nil {
			return result, fmt.Errorf("store: check consistency, scan edge: %w", err)
		}
		result.EdgesChecked++
		if sourceMissing {
			result.Issues = append(result.Issues, Inconsistency{
				Type: InconsistencyDanglingEdgeEndpoint, ID: id,
				Details: fmt.Sprintf("source node %s does not exist", source),
			})
		}
		if targetMissing {
			result.Issues = append(result.Issues, Inconsistency{
				Type: InconsistencyDanglingEdgeEndpoint, ID: id,
				Details: fmt.Sprintf("target node %s does not exist", target),
			})
		}
	}
	if err := edgeRows.Err(); err != nil {
		return result, fmt.Errorf("store: check consistency, iterate edges: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}
