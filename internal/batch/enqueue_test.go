package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIntoBatches_GroupsFilesByBatchSize(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}

	got := splitIntoBatches(files, 2)

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, got)
}

func TestSplitIntoBatches_ZeroBatchSizeUsesDefault(t *testing.T) {
	files := make([]string, DefaultBatchSize+1)
	for i := range files {
		files[i] = "f"
	}

	got := splitIntoBatches(files, 0)

	assert.Len(t, got, 2)
	assert.Len(t, got[0], DefaultBatchSize)
	assert.Len(t, got[1], 1)
}

func TestSplitIntoBatches_EmptyInputReturnsNoBatches(t *testing.T) {
	assert.Empty(t, splitIntoBatches(nil, 10))
}
