package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/model"
)

// TS01: Enrich Populates Imports And Calls For A Python Chunk
func TestService_Enrich_PythonFunction_PopulatesImportsAndCalls(t *testing.T) {
	// Given: a Python file with one import and a function that calls it
	source := []byte(`import os

def save(path):
    os.path.exists(path)
    return True
`)
	c := chunk.NewASTChunker()
	svc := NewService()
	c.SetEnricher(svc)

	// When: chunking the file
	chunks, err := c.Chunk(context.Background(), chunk.FileInput{
		Path: "api/services/user_service.py", Source: source, Language: "python", Repository: "demo",
	}, chunk.DefaultOptions())

	// Then: the function chunk carries the file's import and its own call
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	fn := chunks[0]
	assert.Contains(t, fn.Metadata.Imports, "os")
	assert.Contains(t, fn.Metadata.Calls, "os.path.exists")
	assert.Equal(t, model.ChunkFunction, fn.Kind)
}

// TS02: Enrich Populates ReExports For A Barrel Chunk
func TestService_Enrich_BarrelFile_PopulatesReExports(t *testing.T) {
	// Given: a TypeScript barrel file
	source := []byte(`export { a } from './a'
export { b as c } from './b'
`)
	chk := chunk.NewASTChunker()
	svc := NewService()
	chk.SetEnricher(svc)

	// When: chunking it
	chunks, err := chk.Chunk(context.Background(), chunk.FileInput{
		Path: "packages/ui/index.ts", Source: source, Language: "typescript", Repository: "demo",
	}, chunk.DefaultOptions())

	// Then: the single barrel chunk lists both re-exports, alias included
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].Metadata.ReExports, 2)
	assert.Equal(t, "c", chunks[0].Metadata.ReExports[1].Symbol)
	assert.Equal(t, "b", chunks[0].Metadata.ReExports[1].Original)
}
