package lsp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/model"
)

type fakeHoverer struct {
	text string
	err  error
}

func (f *fakeHoverer) Hover(_ context.Context, _, _ string, _, _ int) (string, error) {
	return f.text, f.err
}

func TestTypeExtractor_RecoversSignatureFromHover(t *testing.T) {
	py := &fakeHoverer{text: "def compute(a: int) -> bool"}
	te := NewTypeExtractor(py, nil, nil, discardLogger())
	chunk := &model.Chunk{Language: LanguagePython, Name: "compute", StartLine: 0}

	info := te.ExtractTypeMetadata(context.Background(), "a.py", []byte("def compute(a: int) -> bool:\n    pass\n"), chunk)

	require.NotEmpty(t, info.Signature)
	assert.Equal(t, "bool", info.ReturnType)
}

func TestTypeExtractor_NoClientForLanguageDegradesToEmpty(t *testing.T) {
	te := NewTypeExtractor(nil, nil, nil, discardLogger())
	chunk := &model.Chunk{Language: LanguagePython, Name: "compute", StartLine: 0}

	info := te.ExtractTypeMetadata(context.Background(), "a.py", []byte("def compute(): pass\n"), chunk)

	assert.Equal(t, TypeInfo{}, info)
}

func TestTypeExtractor_HoverErrorDegradesToEmptyWithoutPanicking(t *testing.T) {
	py := &fakeHoverer{err: assertErr}
	te := NewTypeExtractor(py, nil, nil, discardLogger())
	chunk := &model.Chunk{Language: LanguagePython, Name: "compute", StartLine: 0}

	info := te.ExtractTypeMetadata(context.Background(), "a.py", []byte("def compute(): pass\n"), chunk)

	assert.Equal(t, TypeInfo{}, info)
}

func TestTypeExtractor_EmptyHoverTextDegradesToEmpty(t *testing.T) {
	py := &fakeHoverer{text: ""}
	te := NewTypeExtractor(py, nil, nil, discardLogger())
	chunk := &model.Chunk{Language: LanguagePython, Name: "compute", StartLine: 0}

	info := te.ExtractTypeMetadata(context.Background(), "a.py", []byte("def compute(): pass\n"), chunk)

	assert.Equal(t, TypeInfo{}, info)
}

func TestTypeExtractor_RoutesTypeScriptFamilyToTypeScriptClient(t *testing.T) {
	ts := &fakeHoverer{text: "function run(): void"}
	te := NewTypeExtractor(nil, ts, nil, discardLogger())
	chunk := &model.Chunk{Language: LanguageTypeScriptReact, Name: "run", StartLine: 0}

	info := te.ExtractTypeMetadata(context.Background(), "a.tsx", []byte("function run(): void {}\n"), chunk)

	assert.Equal(t, "void", info.ReturnType)
}

func TestLocateSymbol_FallsBackToDefaultColumnWhenNameNotFound(t *testing.T) {
	chunk := &model.Chunk{Name: "missing", StartLine: 0}

	line, col := locateSymbol([]byte("something else\n"), chunk)

	assert.Equal(t, 0, line)
	assert.Equal(t, defaultColumn, col)
}

var assertErr = &fakeErr{"hover failed"}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }
