package embed

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"strings"
	"sync"
)

// MockEmbedder generates deterministic, unit-normalized vectors seeded
// from the MD5 hash of the input text, with no model loaded (spec §4.7
// "Mock mode"). It supports development and testing without paying the
// model-download/inference cost, and its determinism makes embedding-
// dependent tests reproducible.
type MockEmbedder struct {
	dims      int
	modelName string

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder producing dims-wide vectors.
func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &MockEmbedder{dims: dims, modelName: "mock"}
}

// Embed generates a deterministic vector for text; empty input yields a
// zero vector (spec §4.7).
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, m.dims), nil
	}
	return normalizeVector(seedVector(text, m.dims)), nil
}

// EmbedBatch embeds each text independently; mock mode has no real batched
// forward pass to exploit.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockEmbedder) Dimensions() int  { return m.dims }
func (m *MockEmbedder) ModelName() string { return m.modelName }

func (m *MockEmbedder) Available(_ context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockEmbedder) SetBatchIndex(_ int)   {}
func (m *MockEmbedder) SetFinalBatch(_ bool)  {}

// seedVector expands repeated MD5 digests of text into a dims-wide
// float32 vector: MD5(text), MD5(MD5(text)), ... each 16 bytes yielding
// 4 float32 lanes via a uint32 read, so the output is fully determined
// by the input text alone.
func seedVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	seed := []byte(text)
	sum := md5.Sum(seed)
	for i := 0; i < dims; i++ {
		byteIdx := (i % 4) * 4
		if byteIdx == 0 && i > 0 {
			sum = md5.Sum(sum[:])
		}
		bits := binary.LittleEndian.Uint32(sum[byteIdx : byteIdx+4])
		// Map to a small signed range so the vector isn't dominated by
		// a handful of huge components before normalization.
		v[i] = float32(int32(bits)) / float32(1<<31)
	}
	return v
}
