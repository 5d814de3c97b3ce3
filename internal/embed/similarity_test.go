package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSimilarity_IdenticalVectorsIsOne(t *testing.T) {
	v := []float32{0.6, 0.8}
	assert.InDelta(t, 1.0, ComputeSimilarity(v, v), 0.0001)
}

func TestComputeSimilarity_OrthogonalVectorsIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, ComputeSimilarity(a, b), 0.0001)
}

func TestComputeSimilarity_OppositeVectorsClipToZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	assert.Equal(t, 0.0, ComputeSimilarity(a, b))
}

func TestComputeSimilarity_MismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ComputeSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestComputeSimilarity_EmptyVectorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ComputeSimilarity(nil, []float32{1}))
}
