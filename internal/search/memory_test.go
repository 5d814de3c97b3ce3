package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/model"
)

type fakeMemoryLexical struct {
	hits []LexicalHit
}

func (f *fakeMemoryLexical) SearchMemoryLexical(ctx context.Context, projectID, query string, poolSize int) ([]LexicalHit, error) {
	return f.hits, nil
}

type fakeMemoryLoader struct {
	memories map[string]*model.Memory
}

func (f *fakeMemoryLoader) LoadMemories(ctx context.Context, ids []string) (map[string]*model.Memory, error) {
	out := map[string]*model.Memory{}
	for _, id := range ids {
		if m, ok := f.memories[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func TestMemoryEngine_Search_LexicalOnlyReturnsHydratedResults(t *testing.T) {
	engine := NewMemoryEngine(
		&fakeMemoryLexical{hits: []LexicalHit{{ChunkID: "mem-1", Score: 0.9}}},
		nil,
		&fakeMemoryLoader{memories: map[string]*model.Memory{
			"mem-1": {ID: "mem-1", Title: "decision", Type: model.MemoryDecision},
		}},
	)

	resp, err := engine.Search(context.Background(), "why did we pick postgres", MemoryOptions{
		EnableLexical: true,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "mem-1", resp.Results[0].Memory.ID)
	assert.Equal(t, 1, resp.Results[0].Rank)
}

func TestMemoryEngine_Search_EmptyQueryErrors(t *testing.T) {
	engine := NewMemoryEngine(&fakeMemoryLexical{}, nil, &fakeMemoryLoader{})
	_, err := engine.Search(context.Background(), "  ", MemoryOptions{EnableLexical: true})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
