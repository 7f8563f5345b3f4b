// Package retrieval orchestrates the search pipeline: query embedding,
// ANN lookup, hybrid re-ranking, and the two cache tiers in front of
// them.
package retrieval

import (
	"errors"

	"github.com/fikralabs/hadisd/internal/segment"
)

// ErrSearchFailed indicates a non-recoverable pipeline failure.
var ErrSearchFailed = errors.New("search failed")

// Degradation reasons reported on a degraded result.
const (
	DegradedEmbeddings = "embeddings_unavailable"
	DegradedIndex      = "index_unavailable"
)

// Request is one search invocation.
type Request struct {
	// Query is the user's question or keyword string.
	Query string `json:"query"`

	// TopK overrides the configured result count when positive.
	TopK int `json:"top_k,omitempty"`

	// SourceWork restricts results to one collection work.
	SourceWork string `json:"source_work,omitempty"`

	// DocumentIDs restricts results to the listed documents.
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Hit is one ranked search result.
type Hit struct {
	ChunkID    string           `json:"chunk_id"`
	DocumentID string           `json:"document_id"`
	Text       string           `json:"text"`
	PageNumber int              `json:"page_number"`
	Metadata   segment.Metadata `json:"metadata"`

	// Similarity is the raw vector score in [0, 1].
	Similarity float64 `json:"similarity"`
	// KeywordScore is the keyword overlap fraction in [0, 1].
	KeywordScore float64 `json:"keyword_score"`
	// FinalScore is the fused ranking score in [0, 1].
	FinalScore float64 `json:"final_score"`
}

// Result is a completed search. An empty Hits with Degraded unset means
// the index genuinely had nothing above the floor; Degraded set means a
// dependency was down and the caller should not cache or trust the
// emptiness.
type Result struct {
	Query    string `json:"query"`
	Hits     []Hit  `json:"hits"`
	Degraded bool   `json:"degraded,omitempty"`
	// DegradedReason names the failed dependency when Degraded is set.
	DegradedReason string `json:"degraded_reason,omitempty"`
	// CacheHit marks results served from the result cache.
	CacheHit bool `json:"cache_hit,omitempty"`
}
