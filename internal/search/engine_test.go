package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/model"
)

type fakeLexical struct {
	hits []LexicalHit
	err  error
}

func (f *fakeLexical) SearchLexical(_ context.Context, _, _ string, _ int) ([]LexicalHit, error) {
	return f.hits, f.err
}

type fakeVector struct {
	hits []VectorHit
	err  error
}

func (f *fakeVector) SearchVector(_ context.Context, _ string, _ []float32, _ EmbeddingDomain, _ int) ([]VectorHit, error) {
	return f.hits, f.err
}

type fakeChunks struct {
	byID map[string]*model.Chunk
}

func (f *fakeChunks) LoadChunks(_ context.Context, ids []string) (map[string]*model.Chunk, error) {
	out := make(map[string]*model.Chunk, len(ids))
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func newFakeChunks(ids ...string) *fakeChunks {
	byID := make(map[string]*model.Chunk, len(ids))
	for _, id := range ids {
		byID[id] = &model.Chunk{ID: id, Name: id}
	}
	return &fakeChunks{byID: byID}
}

func TestEngine_Search_RejectsEmptyQuery(t *testing.T) {
	e := NewEngine(&fakeLexical{}, &fakeVector{}, newFakeChunks(), nil, nil, nil)

	_, err := e.Search(context.Background(), "   ", Options{EnableLexical: true})

	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestEngine_Search_RejectsBothMethodsDisabled(t *testing.T) {
	e := NewEngine(&fakeLexical{}, &fakeVector{}, newFakeChunks(), nil, nil, nil)

	_, err := e.Search(context.Background(), "find thing", Options{EnableLexical: false, EnableVector: false})

	assert.ErrorIs(t, err, ErrNoMethodEnabled)
}

func TestEngine_Search_FusesLexicalAndVectorHits(t *testing.T) {
	lex := &fakeLexical{hits: []LexicalHit{{ChunkID: "c1"}, {ChunkID: "c2"}}}
	vec := &fakeVector{hits: []VectorHit{{ChunkID: "c2", Score: 0.9}, {ChunkID: "c1", Score: 0.8}}}
	e := NewEngine(lex, vec, newFakeChunks("c1", "c2"), nil, nil, nil)

	resp, err := e.Search(context.Background(), "find thing", Options{
		Repository: "repo", EmbeddingText: []float32{0.1, 0.2}, TopK: 10,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, 2, resp.Results[1].Rank)
}

func TestEngine_Search_FiltersVectorHitsBelowSimilarityFloor(t *testing.T) {
	lex := &fakeLexical{}
	vec := &fakeVector{hits: []VectorHit{{ChunkID: "strong", Score: 0.5}, {ChunkID: "weak", Score: 0.05}}}
	e := NewEngine(lex, vec, newFakeChunks("strong", "weak"), nil, nil, nil)

	resp, err := e.Search(context.Background(), "find thing", Options{
		EmbeddingText: []float32{0.1}, TopK: 10,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "strong", resp.Results[0].Chunk.ID)
}

func TestEngine_Search_SingleMethodSkipsWeightedFusion(t *testing.T) {
	lex := &fakeLexical{hits: []LexicalHit{{ChunkID: "only"}}}
	e := NewEngine(lex, &fakeVector{}, newFakeChunks("only"), nil, nil, nil)

	resp, err := e.Search(context.Background(), "find thing", Options{EnableLexical: true, EnableVector: false, TopK: 10})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 1.0/61.0, resp.Results[0].Score, 0.00001)
}

func TestEngine_Search_AppliesOffsetAndLimit(t *testing.T) {
	lex := &fakeLexical{hits: []LexicalHit{{ChunkID: "a"}, {ChunkID: "b"}, {ChunkID: "c"}}}
	e := NewEngine(lex, &fakeVector{}, newFakeChunks("a", "b", "c"), nil, nil, nil)

	resp, err := e.Search(context.Background(), "find thing", Options{
		EnableLexical: true, EnableVector: false, TopK: 1, Offset: 1,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "b", resp.Results[0].Chunk.ID)
}

func TestEngine_Search_RerankReordersOnlyThePool(t *testing.T) {
	lex := &fakeLexical{hits: []LexicalHit{{ChunkID: "a"}, {ChunkID: "b"}}}
	reranker := &reverseReranker{}
	e := NewEngine(lex, &fakeVector{}, newFakeChunks("a", "b"), nil, reranker, nil)

	resp, err := e.Search(context.Background(), "find thing", Options{
		EnableLexical: true, EnableVector: false, TopK: 10, Rerank: true, RerankPoolSize: 30,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "b", resp.Results[0].Chunk.ID)
	assert.True(t, resp.Metadata.Reranked)
}

// reverseReranker reports reversed order, used to prove rerank actually
// changes the final ordering.
type reverseReranker struct{}

func (r *reverseReranker) Rerank(_ context.Context, _ string, documents []string, _ int) ([]RerankResult, error) {
	out := make([]RerankResult, len(documents))
	for i := range documents {
		idx := len(documents) - 1 - i
		out[i] = RerankResult{Index: idx, Score: float64(i)}
	}
	return out, nil
}
func (r *reverseReranker) Available(_ context.Context) bool { return true }
func (r *reverseReranker) Close() error                     { return nil }
