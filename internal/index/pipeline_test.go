package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/embed"
	"github.com/codeintel/engine/internal/model"
)

type fakeChunker struct {
	chunks []*model.Chunk
	err    error
}

func (f *fakeChunker) Chunk(ctx context.Context, file chunk.FileInput, opts chunk.Options) ([]*model.Chunk, error) {
	return f.chunks, f.err
}

func (f *fakeChunker) SupportedLanguages() []string { return nil }

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) GenerateEmbeddingsBatch(ctx context.Context, texts []string, domain embed.Domain) ([]embed.EmbeddingResult, error) {
	f.calls++
	out := make([]embed.EmbeddingResult, len(texts))
	for i := range texts {
		out[i] = embed.EmbeddingResult{Text: []float32{0.1}, Code: []float32{0.2}}
	}
	return out, nil
}

type fakeChunkSaver struct {
	saved [][]*model.Chunk
}

func (f *fakeChunkSaver) SaveChunks(ctx context.Context, chunks []*model.Chunk) error {
	f.saved = append(f.saved, chunks)
	return nil
}

func TestPipeline_IndexFiles_EmbedsAndSavesChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def f(): pass\n"), 0o644))

	chunker := &fakeChunker{chunks: []*model.Chunk{{ID: "c1", FilePath: path, Source: "def f(): pass"}}}
	embedder := &fakeEmbedder{}
	saver := &fakeChunkSaver{}

	p := NewPipeline(chunker, embedder, nil, saver, nil)
	result := p.IndexFiles(context.Background(), "demo-repo", []string{path})

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, []float32{0.1}, saver.saved[0][0].EmbeddingText)
	assert.Equal(t, []float32{0.2}, saver.saved[0][0].EmbeddingCode)
	assert.Equal(t, 1, embedder.calls)
}

func TestPipeline_IndexFiles_MissingFileCountsAsError(t *testing.T) {
	p := NewPipeline(&fakeChunker{}, &fakeEmbedder{}, nil, &fakeChunkSaver{}, nil)
	result := p.IndexFiles(context.Background(), "demo-repo", []string{"/no/such/file.py"})

	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "read file")
}

func TestPipeline_IndexFiles_SkipsEmbeddingAlreadyPopulatedChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	chunker := &fakeChunker{chunks: []*model.Chunk{
		{ID: "c1", Source: "x = 1", EmbeddingText: []float32{9}, EmbeddingCode: []float32{9}},
	}}
	embedder := &fakeEmbedder{}
	saver := &fakeChunkSaver{}

	p := NewPipeline(chunker, embedder, nil, saver, nil)
	result := p.IndexFiles(context.Background(), "demo-repo", []string{path})

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, embedder.calls)
}
