package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/codeintel/engine/internal/model"
)

// chunkByLines is the fixed-size fallback chunker (spec §4.4): used when a
// file's language has no tree-sitter grammar, or when parsing the file
// failed. It splits source into fixed-size, line-overlapping windows.
func chunkByLines(file FileInput, opts Options, reason string) []*model.Chunk {
	lines := strings.Split(string(file.Source), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	size := opts.MaxChunkSize
	if size <= 0 {
		size = DefaultMaxChunkSize
	}
	overlap := int(float64(size) * FallbackOverlapRatio)

	var chunks []*model.Chunk
	idx := 0
	start := 0
	for start < len(lines) {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}

		// Merge a short trailing remainder into the previous chunk rather
		// than emitting a near-empty final chunk.
		if end == len(lines) && end-start < opts.MinChunkSize && len(chunks) > 0 {
			last := chunks[len(chunks)-1]
			merged := strings.Join(lines[start:end], "\n")
			last.Source = last.Source + "\n" + merged
			last.EndLine = end
			last.ID = fallbackChunkID(file, last.StartLine, last.EndLine)
			break
		}

		name := fmt.Sprintf("chunk_%d", idx)
		source := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, &model.Chunk{
			ID:            fallbackChunkID(file, start+1, end),
			FilePath:      file.Path,
			Language:      file.Language,
			Kind:          model.ChunkFallbackFixed,
			Name:          name,
			QualifiedName: qualifiedModulePath(file.Path) + "." + name,
			Source:        source,
			StartLine:     start + 1,
			EndLine:       end,
			Repository:    file.Repository,
			CommitHash:    file.CommitHash,
			Metadata: model.ChunkMetadata{
				Fallback:    true,
				FallbackWhy: reason,
			},
			IndexedAt: time.Now(),
		})

		idx++
		if end >= len(lines) {
			break
		}
		start = end - overlap
		if start <= chunks[len(chunks)-1].StartLine-1 {
			start = end
		}
	}

	return chunks
}

func fallbackChunkID(file FileInput, startLine, endLine int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d:%s", file.Path, startLine, endLine, file.CommitHash)))
	return hex.EncodeToString(h[:])[:16]
}
