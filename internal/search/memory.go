package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeintel/engine/internal/model"
)

// MemoryLexicalSearcher runs the trigram query against the memories
// table's content column (SPEC_FULL.md §5 MemoryEngine).
type MemoryLexicalSearcher interface {
	SearchMemoryLexical(ctx context.Context, projectID, query string, poolSize int) ([]LexicalHit, error)
}

// MemoryVectorSearcher runs the cosine-distance query against the
// memories table's single embedding column.
type MemoryVectorSearcher interface {
	SearchMemoryVector(ctx context.Context, projectID string, embedding []float32, poolSize int) ([]VectorHit, error)
}

// MemoryLoader hydrates a fused result's memory ID into the full record.
type MemoryLoader interface {
	LoadMemories(ctx context.Context, ids []string) (map[string]*model.Memory, error)
}

// MemoryOptions configures one memory search call, the same shape as
// Options but scoped to a project instead of a repository and with a
// single embedding (memories have one embedding, not a TEXT/CODE pair).
type MemoryOptions struct {
	ProjectID         string
	Embedding         []float32
	TopK              int
	EnableLexical     bool
	EnableVector      bool
	Weights           *Weights
	CandidatePoolSize int
}

func (o MemoryOptions) withDefaults() MemoryOptions {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.CandidatePoolSize <= 0 {
		o.CandidatePoolSize = DefaultCandidatePoolSize
	}
	if !o.EnableLexical && !o.EnableVector {
		o.EnableLexical = true
		o.EnableVector = true
	}
	return o
}

// MemoryResult is one hybrid-search hit over memory records.
type MemoryResult struct {
	Memory       *model.Memory
	Rank         int
	Score        float64
	LexicalScore float64
	VectorScore  float64
	MatchedTerms []string
}

// MemoryResponse is the `{results, metadata}` pair MemoryEngine.Search
// returns, mirroring Engine.Search's shape.
type MemoryResponse struct {
	Results  []MemoryResult
	Metadata Metadata
}

// MemoryEngine is the hybrid-search surface over free-text memory
// records named in spec §3/§6 as the "memories" table and "Memory
// record" — a parallel surface sharing the same RRF fusion engine as
// chunk search (SPEC_FULL.md §5, grounded on
// api/services/memory_search_service.py /
// hybrid_memory_search_service.py in original_source/).
type MemoryEngine struct {
	lexical MemoryLexicalSearcher
	vector  MemoryVectorSearcher
	loader  MemoryLoader
}

// NewMemoryEngine wires the memory hybrid-search pipeline.
func NewMemoryEngine(lexical MemoryLexicalSearcher, vector MemoryVectorSearcher, loader MemoryLoader) *MemoryEngine {
	return &MemoryEngine{lexical: lexical, vector: vector, loader: loader}
}

// Search runs the same validate/fan-out/fuse/paginate pipeline as
// Engine.Search, narrowed to memories: no rerank stage (spec names no
// cross-encoder step for memory search) and no L2 cache layer (memory
// volume is small enough that the extra cache-invalidation surface
// isn't worth it).
func (e *MemoryEngine) Search(ctx context.Context, query string, opts MemoryOptions) (MemoryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return MemoryResponse{}, ErrEmptyQuery
	}
	opts = opts.withDefaults()
	if !opts.EnableLexical && !opts.EnableVector {
		return MemoryResponse{}, ErrNoMethodEnabled
	}

	start := time.Now()
	var timings StageTimings

	lexicalHits, vectorHits, err := e.fanOut(ctx, query, opts, &timings)
	if err != nil {
		return MemoryResponse{}, err
	}
	vectorHits = filterLowSimilarity(vectorHits, VectorSimilarityFloor)

	weights := opts.Weights
	if weights == nil {
		w := AutoWeights(query)
		weights = &w
	}

	fusionStart := time.Now()
	var fused []FusedResult
	switch {
	case opts.EnableLexical && !opts.EnableVector:
		fused = Fuse(lexicalHits, nil, Weights{Lexical: 1, Vector: 0})
	case opts.EnableVector && !opts.EnableLexical:
		fused = Fuse(nil, vectorHits, Weights{Lexical: 0, Vector: 1})
	default:
		fused = Fuse(lexicalHits, vectorHits, *weights)
	}
	timings.FusionMillis = msSince(fusionStart)
	timings.TotalMillis = msSince(start)

	if opts.TopK < len(fused) {
		fused = fused[:opts.TopK]
	}

	results, err := e.enrich(ctx, fused)
	if err != nil {
		return MemoryResponse{}, err
	}

	return MemoryResponse{
		Results: results,
		Metadata: Metadata{
			Timings:         timings,
			LexicalCount:    len(lexicalHits),
			VectorCount:     len(vectorHits),
			CandidatePool:   opts.CandidatePoolSize,
			EffectiveWeight: *weights,
		},
	}, nil
}

func (e *MemoryEngine) fanOut(ctx context.Context, query string, opts MemoryOptions, timings *StageTimings) ([]LexicalHit, []VectorHit, error) {
	g, gctx := errgroup.WithContext(ctx)

	var lexicalHits []LexicalHit
	var vectorHits []VectorHit

	if opts.EnableLexical && e.lexical != nil {
		g.Go(func() error {
			t0 := time.Now()
			hits, err := e.lexical.SearchMemoryLexical(gctx, opts.ProjectID, query, opts.CandidatePoolSize)
			timings.LexicalMillis = msSince(t0)
			if err != nil {
				return nil // graceful degradation, matching Engine.fanOut
			}
			lexicalHits = hits
			return nil
		})
	}

	if opts.EnableVector && e.vector != nil && len(opts.Embedding) > 0 {
		g.Go(func() error {
			t0 := time.Now()
			hits, err := e.vector.SearchMemoryVector(gctx, opts.ProjectID, opts.Embedding, opts.CandidatePoolSize)
			timings.VectorMillis = msSince(t0)
			if err != nil {
				return nil
			}
			vectorHits = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lexicalHits, vectorHits, nil
}

func (e *MemoryEngine) enrich(ctx context.Context, fused []FusedResult) ([]MemoryResult, error) {
	if len(fused) == 0 {
		return nil, nil
	}
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkID
	}
	memories, err := e.loader.LoadMemories(ctx, ids)
	if err != nil {
		return nil, errors.New("memory search: load memories: " + err.Error())
	}

	results := make([]MemoryResult, 0, len(fused))
	for i, f := range fused {
		m, ok := memories[f.ChunkID]
		if !ok {
			continue
		}
		results = append(results, MemoryResult{
			Memory:       m,
			Rank:         i + 1,
			Score:        f.Score,
			LexicalScore: f.LexicalScore,
			VectorScore:  f.VectorScore,
			MatchedTerms: f.MatchedTerms,
		})
	}
	return results, nil
}
