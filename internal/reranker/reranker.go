// Package reranker fuses vector similarity with keyword overlap and
// metadata boosts to produce the final result ranking.
package reranker

import (
	"context"
	"errors"

	"github.com/fikralabs/hadisd/internal/vectorstore"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// ScoredResult is a candidate with its fused score breakdown.
type ScoredResult struct {
	Chunk      vectorstore.ScoredChunk
	// KeywordScore is the fraction of query keywords found in the
	// chunk text, in [0, 1].
	KeywordScore float64
	// FinalScore is the fused, boosted, clamped score in [0, 1].
	FinalScore float64
	// OriginalRank is the candidate's position in the index results.
	OriginalRank int
}

// Reranker orders candidates for a query.
type Reranker interface {
	// Rerank scores candidates against the query and returns the topK
	// best, highest final score first. Candidates below the similarity
	// floor are dropped before scoring.
	Rerank(ctx context.Context, query string, candidates []vectorstore.ScoredChunk, topK int) ([]ScoredResult, error)
}
