// Package search implements the hybrid lexical + vector retrieval pipeline
// (spec §4.12): parallel lexical/vector fan-out, weighted Reciprocal Rank
// Fusion, optional cross-encoder rerank, and L2-cached pagination.
package search

import "sort"

// RRFConstant is the smoothing constant k used by weighted Reciprocal Rank
// Fusion (spec §4.12). Unlike the teacher's normalize-to-[0,1] RRF, the
// fused score here is the raw sum of weighted reciprocal ranks, never
// rescaled — callers compare FusedResult.Score across queries at their own
// risk, same as the spec's literal formula.
const RRFConstant = 60

// LexicalHit is one row from the trigram/ILIKE lexical search.
type LexicalHit struct {
	ChunkID      string
	Score        float64
	MatchedTerms []string
}

// VectorHit is one row from the pgvector HNSW search. Score is cosine
// similarity (1 - cosine distance), already in [0, 1].
type VectorHit struct {
	ChunkID string
	Score   float64
}

// FusedResult is one document after RRF combines its lexical and vector
// ranks.
type FusedResult struct {
	ChunkID      string
	Score        float64
	LexicalScore float64
	LexicalRank  int // 1-indexed, 0 if absent from the lexical list
	VectorScore  float64
	VectorRank   int // 1-indexed, 0 if absent from the vector list
	MatchedTerms []string
}

// Fuse combines lexical and vector hits with weighted RRF:
//
//	score(d) = Σ_m w_m · (1 / (k + rank_m(d)))
//
// A document missing from one list contributes nothing for that list —
// there is no missing-rank penalty term, unlike the teacher's fusion.go.
// Only documents present in at least one list are returned, sorted by
// score descending, then lexical score descending, then ChunkID ascending
// for determinism.
func Fuse(lexical []LexicalHit, vector []VectorHit, w Weights) []FusedResult {
	byID := make(map[string]*FusedResult, len(lexical)+len(vector))

	get := func(id string) *FusedResult {
		if r, ok := byID[id]; ok {
			return r
		}
		r := &FusedResult{ChunkID: id}
		byID[id] = r
		return r
	}

	for rank, h := range lexical {
		r := get(h.ChunkID)
		r.LexicalScore = h.Score
		r.LexicalRank = rank + 1
		r.MatchedTerms = h.MatchedTerms
		r.Score += w.Lexical / float64(RRFConstant+rank+1)
	}
	for rank, h := range vector {
		r := get(h.ChunkID)
		r.VectorScore = h.Score
		r.VectorRank = rank + 1
		r.Score += w.Vector / float64(RRFConstant+rank+1)
	}

	out := make([]FusedResult, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].LexicalScore != out[j].LexicalScore {
			return out[i].LexicalScore > out[j].LexicalScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

// Weights configures the relative influence of the lexical and vector
// result lists on the fused score.
type Weights struct {
	Lexical float64
	Vector  float64
}

// DefaultWeights matches the spec's "else" branch of the auto-weight
// heuristic (spec §4.12): a query with no strong lexical or semantic
// signal splits the difference toward vector search.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.4, Vector: 0.6}
}

// AutoWeights implements the spec's query-shape heuristic for picking
// lexical/vector weights when the caller hasn't overridden them: five or
// more code indicators (parens, braces, dots, arrows, double-colons)
// signals a code-shaped query; a long query with none of those
// indicators signals prose.
func AutoWeights(query string) Weights {
	indicators := countCodeIndicators(query)
	switch {
	case indicators >= 5:
		return Weights{Lexical: 0.3, Vector: 0.7}
	case indicators == 0 && wordCount(query) >= 4:
		return Weights{Lexical: 0.5, Vector: 0.5}
	default:
		return DefaultWeights()
	}
}

func countCodeIndicators(query string) int {
	count := 0
	for _, r := range query {
		switch r {
		case '(', ')', '{', '}', '.', '>', ':':
			count++
		}
	}
	return count
}

func wordCount(query string) int {
	n := 0
	inWord := false
	for _, r := range query {
		isSpace := r == ' ' || r == '\t' || r == '\n'
		if !isSpace && !inWord {
			n++
		}
		inWord = !isSpace
	}
	return n
}
