// Package index implements the per-file indexing pipeline cmd/indexworker
// runs inside each subprocess-isolated batch (spec §4.9, §6 "worker
// contract"): read a file, chunk it, enrich metadata, generate dual
// embeddings, and persist the result. This replaces the teacher's
// coordinator/runner pair, which indexed a single locally-watched project
// directory (internal/watcher-driven) — SPEC_FULL's pipeline instead
// indexes whatever file list the batch consumer hands a worker process for
// a named repository, with no filesystem watch involved.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/codeintel/engine/internal/cache"
	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/embed"
	"github.com/codeintel/engine/internal/model"
)

// Embedder is the subset of embed.DualService the pipeline depends on,
// narrowed so tests can fake it without a live Ollama connection.
type Embedder interface {
	GenerateEmbeddingsBatch(ctx context.Context, texts []string, domain embed.Domain) ([]embed.EmbeddingResult, error)
}

// ChunkSaver is the subset of store.ChunkStore the pipeline depends on.
type ChunkSaver interface {
	SaveChunks(ctx context.Context, chunks []*model.Chunk) error
}

// FileError mirrors model.FileError; kept as a distinct alias-free type
// here since a worker process reports its own {success_count, error_count}
// JSON and never serializes this list onto the wire (spec §6).
type FileError struct {
	Path    string
	Message string
}

// Result is the per-batch outcome a Pipeline run produces. SuccessCount
// and ErrorCount are what cmd/indexworker prints to stdout (spec §6:
// `{success_count, error_count}`).
type Result struct {
	SuccessCount int
	ErrorCount   int
	Errors       []FileError
}

// Pipeline composes the chunk -> metadata -> embed -> cache -> store
// stages behind one per-file call (spec §4.4, §4.5, §4.7, §4.1-§4.3).
// Metadata enrichment is wired into the chunker itself via
// chunk.ASTChunker.SetEnricher, matching chunk.Enricher's design (spec
// §4.4 step 5) rather than running as a separate pipeline stage here.
type Pipeline struct {
	chunker  chunk.Chunker
	embedder Embedder
	cache    *cache.Cascade
	chunks   ChunkSaver
	log      *slog.Logger
}

// NewPipeline builds a Pipeline. cache may be nil to disable the cascade
// lookup (every file re-chunks).
func NewPipeline(chunker chunk.Chunker, embedder Embedder, c *cache.Cascade, chunks ChunkSaver, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{chunker: chunker, embedder: embedder, cache: c, chunks: chunks, log: log}
}

// IndexFiles runs the pipeline over every path, in order, continuing past
// a single file's failure rather than aborting the whole batch (spec §4.9:
// a subprocess worker reports counts, it does not fail the batch wholesale
// on one bad file).
func (p *Pipeline) IndexFiles(ctx context.Context, repository string, paths []string) Result {
	result := Result{}
	for _, path := range paths {
		if err := p.indexOne(ctx, repository, path); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			p.log.Warn("index file failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		result.SuccessCount++
	}
	return result
}

func (p *Pipeline) indexOne(ctx context.Context, repository, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	chunks, err := p.chunkFile(ctx, repository, path, source)
	if err != nil {
		return fmt.Errorf("chunk file: %w", err)
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.chunks.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

// chunkFile consults the cascade before re-running the AST chunker, and
// populates it on a miss (spec §4.1-§4.3: cache keyed by path + content
// hash, so an unchanged file never re-parses).
func (p *Pipeline) chunkFile(ctx context.Context, repository, path string, source []byte) ([]*model.Chunk, error) {
	if p.cache != nil {
		if cached, ok := p.cache.GetChunks(ctx, path, source); ok {
			out := make([]*model.Chunk, len(cached))
			for i := range cached {
				out[i] = &cached[i]
			}
			return out, nil
		}
	}

	file := chunk.FileInput{Path: path, Source: source, Repository: repository}
	chunks, err := p.chunker.Chunk(ctx, file, chunk.DefaultOptions())
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		plain := make([]model.Chunk, len(chunks))
		for i, c := range chunks {
			plain[i] = *c
		}
		p.cache.PutChunks(ctx, path, source, plain)
	}
	return chunks, nil
}

// embedChunks generates both TEXT and CODE embeddings for chunks missing
// one, in a single batch call per file (spec §4.7's
// generate_embeddings_batch). Chunks already carrying an embedding — e.g.
// replayed from the cascade — are left untouched.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*model.Chunk) error {
	var pending []*model.Chunk
	var texts []string
	for _, c := range chunks {
		if len(c.EmbeddingText) > 0 && len(c.EmbeddingCode) > 0 {
			continue
		}
		pending = append(pending, c)
		texts = append(texts, c.Source)
	}
	if len(pending) == 0 {
		return nil
	}

	results, err := p.embedder.GenerateEmbeddingsBatch(ctx, texts, embed.DomainHybrid)
	if err != nil {
		return err
	}
	if len(results) != len(pending) {
		return fmt.Errorf("embedding batch returned %d results for %d chunks", len(results), len(pending))
	}

	for i, c := range pending {
		c.EmbeddingText = results[i].Text
		c.EmbeddingCode = results[i].Code
	}
	return nil
}
