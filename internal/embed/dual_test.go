package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockService() *DualService {
	return NewDualService(DualServiceConfig{Mock: true})
}

func TestDualService_GenerateEmbedding_HybridPopulatesBothDomains(t *testing.T) {
	s := mockService()

	result, err := s.GenerateEmbedding(context.Background(), "func main() {}", DomainHybrid)

	require.NoError(t, err)
	assert.Len(t, result.Text, DefaultDimensions)
	assert.Len(t, result.Code, DefaultDimensions)
}

func TestDualService_GenerateEmbedding_TextOnlyLeavesCodeEmpty(t *testing.T) {
	s := mockService()

	result, err := s.GenerateEmbedding(context.Background(), "hello", DomainText)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Text)
	assert.Empty(t, result.Code)
}

func TestDualService_GenerateEmbeddingLegacy_ReturnsTextVectorOnly(t *testing.T) {
	s := mockService()

	v, err := s.GenerateEmbeddingLegacy(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, v, DefaultDimensions)
}

func TestDualService_GenerateEmbeddingsBatch_FillsEmptyPositionsWithZeroVectors(t *testing.T) {
	s := mockService()

	results, err := s.GenerateEmbeddingsBatch(context.Background(), []string{"a", "", "b"}, DomainText)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, x := range results[1].Text {
		assert.Zero(t, x)
	}
	assert.NotEmpty(t, results[0].Text)
	assert.NotEmpty(t, results[2].Text)
}

func TestDualService_PreloadModels_LoadsBothDomainsOnce(t *testing.T) {
	s := mockService()

	require.NoError(t, s.PreloadModels(context.Background()))

	assert.NotNil(t, s.textModel)
	assert.NotNil(t, s.codeModel)
}

func TestDualService_Close_ReleasesBothModels(t *testing.T) {
	s := mockService()
	require.NoError(t, s.PreloadModels(context.Background()))

	require.NoError(t, s.Close())

	assert.Nil(t, s.textModel)
	assert.Nil(t, s.codeModel)
}
