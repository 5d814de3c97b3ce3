package store

import (
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/model"
)

func TestVectorOrNil_EmptySliceBecomesNil(t *testing.T) {
	assert.Nil(t, vectorOrNil(nil))
	assert.Nil(t, vectorOrNil([]float32{}))
}

func TestVectorOrNil_NonEmptySliceRoundTrips(t *testing.T) {
	v := vectorOrNil([]float32{0.1, 0.2, 0.3})
	require.NotNil(t, v)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v.Slice())
}

// fakeRow plays back a fixed sequence of scan targets, standing in for a
// pgx.Row/pgx.Rows without a live connection.
type fakeRow struct {
	values []any
}

func (f *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		if i >= len(f.values) {
			continue
		}
		switch v := d.(type) {
		case *string:
			*v = f.values[i].(string)
		case **string:
			*v = f.values[i].(*string)
		case *int:
			*v = f.values[i].(int)
		case *[]byte:
			*v = f.values[i].([]byte)
		case **pgvector.Vector:
			*v = f.values[i].(*pgvector.Vector)
		case *time.Time:
			*v = f.values[i].(time.Time)
		case **time.Time:
			*v = f.values[i].(*time.Time)
		}
	}
	return nil
}

func TestScanChunk_PopulatesFieldsAndDecodesMetadata(t *testing.T) {
	embedding := pgvector.NewVector([]float32{1, 2, 3})
	now := time.Now()

	row := &fakeRow{values: []any{
		"chunk-1", "repo", "a.py", "python", "function", "foo", "mod.foo",
		"def foo(): pass", 1, 2, "abc123",
		[]byte(`{"signature":"def foo()"}`),
		&embedding, (*pgvector.Vector)(nil), (*string)(nil), now, (*time.Time)(nil),
	}}

	c, err := scanChunk(row)
	require.NoError(t, err)
	assert.Equal(t, "chunk-1", c.ID)
	assert.Equal(t, model.ChunkFunction, c.Kind)
	assert.Equal(t, "def foo()", c.Metadata.Signature)
	assert.Equal(t, []float32{1, 2, 3}, c.EmbeddingText)
	assert.Nil(t, c.EmbeddingCode)
}
