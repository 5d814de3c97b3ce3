package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeintel/engine/internal/cache"
)

// ErrNoMethodEnabled is returned when both lexical and vector search are
// disabled (spec §4.12 step 1, "Validate").
var ErrNoMethodEnabled = errors.New("search: lexical and vector search are both disabled")

// ErrEmptyQuery is returned for a blank query string.
var ErrEmptyQuery = errors.New("search: query must not be empty")

// Engine implements the hybrid search operation described in spec §4.12.
type Engine struct {
	lexical  LexicalSearcher
	vector   VectorSearcher
	chunks   ChunkLoader
	l2       *cache.L2
	reranker Reranker
	log      *slog.Logger
}

// NewEngine wires the hybrid search pipeline. l2 and reranker may be nil —
// a nil l2 disables caching, a nil reranker disables rerank regardless of
// Options.Rerank.
func NewEngine(lexical LexicalSearcher, vector VectorSearcher, chunks ChunkLoader, l2 *cache.L2, reranker Reranker, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{lexical: lexical, vector: vector, chunks: chunks, l2: l2, reranker: reranker, log: log}
}

// cachedResult is the subset of Result that survives a JSON round-trip
// through L2 — chunk bodies are re-hydrated from ChunkLoader on hit so the
// cache entry stays small (spec §4.2 key family `search:*`, 30s TTL).
type cachedResult struct {
	ChunkID      string
	Rank         int
	Score        float64
	LexicalScore float64
	LexicalRank  int
	VectorScore  float64
	VectorRank   int
	MatchedTerms []string
	Reranked     bool
}

type cachedResponse struct {
	Results  []cachedResult
	Metadata Metadata
}

// Search runs the pipeline: validate, cache lookup, parallel lexical +
// vector fan-out, low-similarity vector filtering, weighted RRF fusion,
// optional cross-encoder rerank, pagination, cache populate.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, ErrEmptyQuery
	}
	opts = opts.withDefaults()
	if !opts.EnableLexical && !opts.EnableVector {
		return Response{}, ErrNoMethodEnabled
	}

	cacheKey := cache.SearchKey(query, fmt.Sprintf("%s|%d|%d", opts.Repository, opts.TopK, opts.Offset))
	if e.l2 != nil {
		var cached cachedResponse
		if e.l2.Get(ctx, cacheKey, &cached) {
			return e.rehydrate(ctx, cached)
		}
	}

	start := time.Now()
	var timings StageTimings

	lexicalHits, vectorHits, err := e.fanOut(ctx, query, opts, &timings)
	if err != nil {
		return Response{}, err
	}

	vectorHits = filterLowSimilarity(vectorHits, VectorSimilarityFloor)

	weights := opts.Weights
	if weights == nil {
		w := AutoWeights(query)
		weights = &w
	}

	fusionStart := time.Now()
	fused := fuseForMode(lexicalHits, vectorHits, *weights, opts)
	timings.FusionMillis = msSince(fusionStart)

	reranked := false
	if opts.Rerank && e.reranker != nil {
		rerankStart := time.Now()
		fused, reranked = e.rerank(ctx, query, fused, opts.RerankPoolSize)
		timings.RerankMillis = msSince(rerankStart)
	}

	timings.TotalMillis = msSince(start)

	page := paginate(fused, opts.Offset, opts.TopK)

	meta := Metadata{
		Timings:         timings,
		LexicalCount:    len(lexicalHits),
		VectorCount:     len(vectorHits),
		CandidatePool:   opts.CandidatePoolSize,
		EffectiveWeight: *weights,
		Reranked:        reranked,
	}

	if e.l2 != nil {
		e.l2.Set(ctx, cacheKey, toCachedResponse(page, meta), cache.TTLSearch)
	}

	results, err := e.enrich(ctx, page)
	if err != nil {
		return Response{}, err
	}
	return Response{Results: results, Metadata: meta}, nil
}

// fanOut runs lexical and vector search concurrently (spec §4.12 step 3,
// spec §5 "Hybrid search fans out lexical and vector queries concurrently
// and awaits both").
func (e *Engine) fanOut(ctx context.Context, query string, opts Options, timings *StageTimings) ([]LexicalHit, []VectorHit, error) {
	g, gctx := errgroup.WithContext(ctx)

	var lexicalHits []LexicalHit
	var vectorHits []VectorHit
	var lexicalErr, vectorErr error

	if opts.EnableLexical {
		g.Go(func() error {
			t0 := time.Now()
			hits, err := e.lexical.SearchLexical(gctx, opts.Repository, query, opts.CandidatePoolSize)
			timings.LexicalMillis = msSince(t0)
			if err != nil {
				lexicalErr = err
				return nil // graceful degradation, spec §7
			}
			lexicalHits = hits
			return nil
		})
	}

	if opts.EnableVector {
		g.Go(func() error {
			embedding, domain := selectEmbedding(opts)
			if len(embedding) == 0 {
				return nil
			}
			t0 := time.Now()
			hits, err := e.vector.SearchVector(gctx, opts.Repository, embedding, domain, opts.CandidatePoolSize)
			timings.VectorMillis = msSince(t0)
			if err != nil {
				vectorErr = err
				return nil
			}
			vectorHits = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if lexicalErr != nil && vectorErr != nil {
		return nil, nil, errors.Join(lexicalErr, vectorErr)
	}
	if lexicalErr != nil {
		e.log.Warn("lexical search degraded", slog.String("error", lexicalErr.Error()))
	}
	if vectorErr != nil {
		e.log.Warn("vector search degraded", slog.String("error", vectorErr.Error()))
	}

	return lexicalHits, vectorHits, nil
}

// selectEmbedding prefers the code-domain embedding when supplied
// (spec §4.12 step 3, "Domain selection").
func selectEmbedding(opts Options) ([]float32, EmbeddingDomain) {
	if len(opts.EmbeddingCode) > 0 {
		return opts.EmbeddingCode, EmbeddingDomainCode
	}
	return opts.EmbeddingText, EmbeddingDomainText
}

// filterLowSimilarity drops vector hits below the similarity floor and
// re-ranks the survivors contiguously (spec §4.12 step 4).
func filterLowSimilarity(hits []VectorHit, floor float64) []VectorHit {
	survivors := make([]VectorHit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= floor {
			survivors = append(survivors, h)
		}
	}
	return survivors
}

// fuseForMode implements the spec's "single-method searches skip fusion"
// shortcut (spec §4.12 step 5): with only one method enabled, score is
// 1/(k+rank) directly rather than a weighted RRF sum.
func fuseForMode(lexical []LexicalHit, vector []VectorHit, weights Weights, opts Options) []FusedResult {
	switch {
	case opts.EnableLexical && !opts.EnableVector:
		return Fuse(lexical, nil, Weights{Lexical: 1, Vector: 0})
	case opts.EnableVector && !opts.EnableLexical:
		return Fuse(nil, vector, Weights{Lexical: 0, Vector: 1})
	default:
		return Fuse(lexical, vector, weights)
	}
}

// rerank takes the top rerankPoolSize fused candidates, cross-encoder
// scores each against the query, re-sorts that prefix, and leaves the
// tail — and its RRF ranks — untouched (spec §4.12 step 6).
func (e *Engine) rerank(ctx context.Context, query string, fused []FusedResult, poolSize int) ([]FusedResult, bool) {
	if len(fused) < 2 || !e.reranker.Available(ctx) {
		return fused, false
	}
	if poolSize > len(fused) {
		poolSize = len(fused)
	}
	head := fused[:poolSize]
	tail := fused[poolSize:]

	docs := make([]string, len(head))
	for i, f := range head {
		docs[i] = strings.Join(f.MatchedTerms, " ")
	}

	scored, err := e.reranker.Rerank(ctx, query, docs, 0)
	if err != nil {
		e.log.Warn("rerank failed, keeping RRF order", slog.String("error", err.Error()))
		return fused, false
	}

	rerankedHead := make([]FusedResult, 0, len(head))
	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(head) {
			continue
		}
		r := head[s.Index]
		r.Score = s.Score
		rerankedHead = append(rerankedHead, r)
	}

	out := make([]FusedResult, 0, len(fused))
	out = append(out, rerankedHead...)
	out = append(out, tail...)
	return out, true
}

// paginate applies offset/limit (spec §4.12 step 7). It does not assign
// ranks; enrich numbers the returned page from 1.
func paginate(fused []FusedResult, offset, limit int) []FusedResult {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(fused) {
		return nil
	}
	end := offset + limit
	if end > len(fused) {
		end = len(fused)
	}
	return fused[offset:end]
}

// enrich hydrates a page of fused results into full Result records via
// ChunkLoader, preserving fused order.
func (e *Engine) enrich(ctx context.Context, page []FusedResult) ([]Result, error) {
	if len(page) == 0 {
		return nil, nil
	}
	ids := make([]string, len(page))
	for i, f := range page {
		ids[i] = f.ChunkID
	}
	chunks, err := e.chunks.LoadChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	results := make([]Result, 0, len(page))
	for i, f := range page {
		c, ok := chunks[f.ChunkID]
		if !ok {
			continue
		}
		results = append(results, Result{
			Chunk:        c,
			Rank:         i + 1,
			Score:        f.Score,
			LexicalScore: f.LexicalScore,
			LexicalRank:  f.LexicalRank,
			VectorScore:  f.VectorScore,
			VectorRank:   f.VectorRank,
			MatchedTerms: f.MatchedTerms,
		})
	}
	return results, nil
}

func (e *Engine) rehydrate(ctx context.Context, cached cachedResponse) (Response, error) {
	fused := make([]FusedResult, len(cached.Results))
	for i, r := range cached.Results {
		fused[i] = FusedResult{
			ChunkID:      r.ChunkID,
			Score:        r.Score,
			LexicalScore: r.LexicalScore,
			LexicalRank:  r.LexicalRank,
			VectorScore:  r.VectorScore,
			VectorRank:   r.VectorRank,
			MatchedTerms: r.MatchedTerms,
		}
	}
	results, err := e.enrich(ctx, fused)
	if err != nil {
		return Response{}, err
	}
	cached.Metadata.CacheHit = true
	return Response{Results: results, Metadata: cached.Metadata}, nil
}

func toCachedResponse(page []FusedResult, meta Metadata) cachedResponse {
	out := make([]cachedResult, len(page))
	for i, f := range page {
		out[i] = cachedResult{
			ChunkID:      f.ChunkID,
			Rank:         i + 1,
			Score:        f.Score,
			LexicalScore: f.LexicalScore,
			LexicalRank:  f.LexicalRank,
			VectorScore:  f.VectorScore,
			VectorRank:   f.VectorRank,
			MatchedTerms: f.MatchedTerms,
		}
	}
	return cachedResponse{Results: out, Metadata: meta}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
