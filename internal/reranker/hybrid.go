package reranker

import (
	"context"
	"sort"
	"strings"

	"github.com/fikralabs/hadisd/internal/segment"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

// Length thresholds for the substance boost and penalty. Chunks past
// longBoundary carry enough context to answer on their own; chunks
// under shortBoundary are usually headings or fragments.
const (
	longBoundary  = 500
	shortBoundary = 200
)

// Config holds fusion weights, boosts, and the similarity floor.
type Config struct {
	// SimilarityWeight and KeywordWeight blend the two base signals.
	// They should sum to at most 1 so boosts cannot be drowned out.
	SimilarityWeight float64
	KeywordWeight    float64

	// RecordBoost applies when the chunk has a record number.
	RecordBoost float64
	// AttributionBoost applies when the chunk cites a narrator.
	AttributionBoost float64
	// SourceWorkBoost applies when the chunk names its collection.
	SourceWorkBoost float64
	// AuthenticBoost applies to authentic-grade chunks.
	AuthenticBoost float64
	// LengthBoost is added past longBoundary and subtracted under
	// shortBoundary.
	LengthBoost float64
	// PhraseBoost applies when a 2-3 word query phrase appears
	// verbatim in the chunk.
	PhraseBoost float64

	// SimilarityFloor drops candidates before fusion.
	SimilarityFloor float64
}

// DefaultConfig returns the tuned production weights.
func DefaultConfig() Config {
	return Config{
		SimilarityWeight: 0.7,
		KeywordWeight:    0.3,
		RecordBoost:      0.05,
		AttributionBoost: 0.05,
		SourceWorkBoost:  0.05,
		AuthenticBoost:   0.10,
		LengthBoost:      0.05,
		PhraseBoost:      0.10,
		SimilarityFloor:  0.55,
	}
}

// Hybrid fuses vector similarity with keyword overlap and metadata
// boosts. It is stateless and safe for concurrent use.
type Hybrid struct {
	config Config
}

// NewHybrid creates a hybrid reranker.
func NewHybrid(config Config) *Hybrid {
	return &Hybrid{config: config}
}

// Rerank drops candidates below the similarity floor, scores the rest,
// and returns the topK best. Ordering is deterministic: final score
// descending, then similarity descending, then chunk ID ascending.
func (h *Hybrid) Rerank(ctx context.Context, query string, candidates []vectorstore.ScoredChunk, topK int) ([]ScoredResult, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if topK <= 0 {
		topK = len(candidates)
	}
	if len(candidates) == 0 {
		return []ScoredResult{}, nil
	}

	keywords := Tokenize(query)
	phrases := queryPhrases(query)

	scored := make([]ScoredResult, 0, len(candidates))
	for i, c := range candidates {
		if c.Similarity < h.config.SimilarityFloor {
			continue
		}

		keywordScore := keywordOverlap(keywords, c.Chunk.Text)
		final := h.config.SimilarityWeight*c.Similarity +
			h.config.KeywordWeight*keywordScore
		final += h.boosts(c.Chunk, phrases)

		scored = append(scored, ScoredResult{
			Chunk:        c,
			KeywordScore: keywordScore,
			FinalScore:   clamp01(final),
			OriginalRank: i,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].FinalScore != scored[j].FinalScore {
			return scored[i].FinalScore > scored[j].FinalScore
		}
		if scored[i].Chunk.Similarity != scored[j].Chunk.Similarity {
			return scored[i].Chunk.Similarity > scored[j].Chunk.Similarity
		}
		return scored[i].Chunk.Chunk.ID < scored[j].Chunk.Chunk.ID
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// boosts sums the metadata and phrase adjustments for one chunk.
func (h *Hybrid) boosts(chunk segment.Chunk, phrases []string) float64 {
	var b float64
	m := chunk.Metadata

	if m.RecordNumber != "" {
		b += h.config.RecordBoost
	}
	if m.Attribution != "" {
		b += h.config.AttributionBoost
	}
	if m.SourceWork != "" {
		b += h.config.SourceWorkBoost
	}
	if m.Grade == segment.GradeAuthentic {
		b += h.config.AuthenticBoost
	}

	if len(chunk.Text) > longBoundary {
		b += h.config.LengthBoost
	} else if len(chunk.Text) < shortBoundary {
		b -= h.config.LengthBoost
	}

	if len(phrases) > 0 {
		text := strings.ToLower(chunk.Text)
		for _, phrase := range phrases {
			if strings.Contains(text, phrase) {
				b += h.config.PhraseBoost
				break
			}
		}
	}
	return b
}

// keywordOverlap returns the fraction of distinct query keywords found
// in the chunk text. Substring matching keeps Indonesian affixed forms
// ("berpuasa") reachable from their stems ("puasa").
func keywordOverlap(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	text = strings.ToLower(text)

	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// queryPhrases returns the contiguous 2-3 word phrases of the query,
// lowercased, longest first so the strongest match is tried early.
func queryPhrases(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	for i, w := range words {
		words[i] = strings.Trim(w, ".,!?;:\"'()")
	}

	var phrases []string
	for size := 3; size >= 2; size-- {
		for i := 0; i+size <= len(words); i++ {
			phrases = append(phrases, strings.Join(words[i:i+size], " "))
		}
	}
	return phrases
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ Reranker = (*Hybrid)(nil)
