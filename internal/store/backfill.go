package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeintel/engine/internal/model"
)

// BackfillStats summarizes one BackfillQualifiedNames run, mirroring the
// counters scripts/backfill_name_path.py prints (original_source), ported
// from a one-off migration script into a repeatable `cicli graph
// backfill-names` operation (spec §4.10 supplement).
type BackfillStats struct {
	TotalChunks int
	Updated     int
	UniqueFiles int
}

// backfillRow is the narrow projection BackfillQualifiedNames needs from
// the chunks table to reconstruct same-file parent context.
type backfillRow struct {
	id, filePath, kind, name string
	startLine, endLine       int
}

// BackfillQualifiedNames derives a QualifiedName for every chunk in
// repository whose qualified_name column is still empty, the same gap
// backfill_name_path.py closed for code_chunks.name_path. A method or
// function chunk nested inside a class chunk's line range (grouped by
// file_path, sorted by start_line) is qualified as "Class.member";
// everything else falls back to its own Name, or a synthesized anonymous
// name when even that is blank (model.IsAnonymousName).
//
// dryRun computes and returns stats without writing qualified_name back.
func BackfillQualifiedNames(ctx context.Context, pool *pgxpool.Pool, repository string, dryRun bool) (BackfillStats, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, file_path, kind, name, start_line, end_line
		FROM chunks
		WHERE repository = $1 AND (qualified_name IS NULL OR qualified_name = '')
		ORDER BY file_path, start_line`, repository)
	if err != nil {
		return BackfillStats{}, fmt.Errorf("store: backfill qualified names: query: %w", err)
	}
	defer rows.Close()

	byFile := map[string][]*backfillRow{}
	var order []string
	for rows.Next() {
		var r backfillRow
		if err := rows.Scan(&r.id, &r.filePath, &r.kind, &r.name, &r.startLine, &r.endLine); err != nil {
			return BackfillStats{}, fmt.Errorf("store: backfill qualified names: scan: %w", err)
		}
		if _, ok := byFile[r.filePath]; !ok {
			order = append(order, r.filePath)
		}
		byFile[r.filePath] = append(byFile[r.filePath], &r)
	}
	if err := rows.Err(); err != nil {
		return BackfillStats{}, fmt.Errorf("store: backfill qualified names: rows: %w", err)
	}

	stats := BackfillStats{UniqueFiles: len(order)}
	type update struct{ id, qualifiedName string }
	var updates []update

	for _, file := range order {
		chunks := byFile[file]
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].startLine < chunks[j].startLine })
		stats.TotalChunks += len(chunks)

		for _, c := range chunks {
			updates = append(updates, update{id: c.id, qualifiedName: qualifiedName(c, chunks)})
		}
	}
	stats.Updated = len(updates)

	if dryRun || len(updates) == 0 {
		return stats, nil
	}

	for _, u := range updates {
		if _, err := pool.Exec(ctx, `UPDATE chunks SET qualified_name = $2 WHERE id = $1`, u.id, u.qualifiedName); err != nil {
			return stats, fmt.Errorf("store: backfill qualified names: update %s: %w", u.id, err)
		}
	}
	return stats, nil
}

// qualifiedName derives one chunk's qualified name from its own name plus,
// for methods and functions, the tightest enclosing class in the same file.
func qualifiedName(c *backfillRow, siblings []*backfillRow) string {
	name := c.name
	if model.IsAnonymousName(name) {
		idPrefix := c.id
		if len(idPrefix) > 8 {
			idPrefix = idPrefix[:8]
		}
		name = fmt.Sprintf("anonymous_%s_%s", c.kind, idPrefix)
	}

	if c.kind != string(model.ChunkMethod) && c.kind != string(model.ChunkFunction) {
		return name
	}
	if owner := enclosingClass(siblings, c); owner != "" {
		return owner + "." + name
	}
	return name
}

// enclosingClass finds the tightest class chunk in the same file whose
// line range contains target, the same "parent context from same-file
// chunks" rule backfill_name_path.py's extract_parent_context applies.
func enclosingClass(chunks []*backfillRow, target *backfillRow) string {
	best := ""
	bestSpan := -1
	for _, c := range chunks {
		if c.kind != string(model.ChunkClass) || c.id == target.id {
			continue
		}
		if c.startLine <= target.startLine && c.endLine >= target.endLine {
			span := c.endLine - c.startLine
			if best == "" || span < bestSpan {
				best = c.name
				bestSpan = span
			}
		}
	}
	return best
}
