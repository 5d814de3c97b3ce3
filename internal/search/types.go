package search

import (
	"context"

	"github.com/codeintel/engine/internal/model"
)

// LexicalSearcher runs the trigram-similarity + ILIKE substring query
// against the chunk table (spec §4.12 step 3, "Lexical"). Implemented by
// internal/store against Postgres's pg_trgm extension.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, repository, query string, poolSize int) ([]LexicalHit, error)
}

// VectorSearcher runs the cosine-distance HNSW query against whichever
// embedding column the caller selects (spec §4.12 step 3, "Vector").
// Implemented by internal/store against pgvector.
type VectorSearcher interface {
	SearchVector(ctx context.Context, repository string, embedding []float32, domain EmbeddingDomain, poolSize int) ([]VectorHit, error)
}

// ChunkLoader hydrates a fused result's chunk ID into the full chunk
// record for display.
type ChunkLoader interface {
	LoadChunks(ctx context.Context, ids []string) (map[string]*model.Chunk, error)
}

// EmbeddingDomain selects which embedding column the vector search reads.
// The pipeline prefers the code-domain embedding when the caller supplies
// one (spec §4.12 step 3).
type EmbeddingDomain string

const (
	EmbeddingDomainText EmbeddingDomain = "text"
	EmbeddingDomainCode EmbeddingDomain = "code"
)

// Options configures one hybrid search call, mirroring the spec's
// `search(...)` operation signature (spec §4.12).
type Options struct {
	Repository        string
	EmbeddingText     []float32
	EmbeddingCode     []float32
	Filters           map[string]string
	TopK              int
	Offset            int
	EnableLexical     bool
	EnableVector      bool
	Weights           *Weights // nil triggers the auto-weight heuristic
	CandidatePoolSize int
	Rerank            bool
	RerankPoolSize    int
}

const (
	DefaultTopK              = 10
	DefaultCandidatePoolSize = 100
	DefaultRerankPoolSize    = 30
	VectorSimilarityFloor    = 0.1
)

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.CandidatePoolSize <= 0 {
		o.CandidatePoolSize = DefaultCandidatePoolSize
	}
	if o.RerankPoolSize <= 0 {
		o.RerankPoolSize = DefaultRerankPoolSize
	}
	if !o.EnableLexical && !o.EnableVector {
		o.EnableLexical = true
		o.EnableVector = true
	}
	return o
}

// Result is one hybrid-search hit after fusion, optional rerank, and
// pagination (spec §4.12 step 7).
type Result struct {
	Chunk        *model.Chunk
	Rank         int
	Score        float64
	LexicalScore float64
	LexicalRank  int
	VectorScore  float64
	VectorRank   int
	MatchedTerms []string
	Reranked     bool
}

// StageTimings reports the wall time spent in each pipeline stage
// (spec §4.12: "Metadata returned to the caller").
type StageTimings struct {
	LexicalMillis float64
	VectorMillis  float64
	FusionMillis  float64
	RerankMillis  float64
	TotalMillis   float64
}

// Metadata accompanies Results and answers the spec's "{results, metadata}"
// return shape.
type Metadata struct {
	Timings         StageTimings
	LexicalCount    int
	VectorCount     int
	CandidatePool   int
	EffectiveWeight Weights
	CacheHit        bool
	Reranked        bool
}

// Response is the literal `{results, metadata}` pair the operation
// returns (spec §4.12).
type Response struct {
	Results  []Result
	Metadata Metadata
}
