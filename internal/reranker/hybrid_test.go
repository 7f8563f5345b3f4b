package reranker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikralabs/hadisd/internal/segment"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

func cand(id, text string, sim float64, meta segment.Metadata) vectorstore.ScoredChunk {
	return vectorstore.ScoredChunk{
		Chunk: segment.Chunk{
			ID:       id,
			Text:     text,
			Metadata: meta,
		},
		Similarity: sim,
	}
}

func rerank(t *testing.T, h *Hybrid, query string, cands []vectorstore.ScoredChunk, topK int) []ScoredResult {
	t.Helper()
	got, err := h.Rerank(context.Background(), query, cands, topK)
	require.NoError(t, err)
	return got
}

func TestRerankNilContext(t *testing.T) {
	h := NewHybrid(DefaultConfig())

	//nolint:staticcheck // nil context is the case under test
	_, err := h.Rerank(nil, "query", nil, 5)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestRerankEmptyCandidates(t *testing.T) {
	h := NewHybrid(DefaultConfig())

	got := rerank(t, h, "query", nil, 5)
	assert.Empty(t, got)
}

func TestRerankSimilarityFloor(t *testing.T) {
	h := NewHybrid(DefaultConfig())

	got := rerank(t, h, "puasa", []vectorstore.ScoredChunk{
		cand("below", "tentang puasa", 0.54, segment.Metadata{}),
		cand("at-floor", "tentang puasa", 0.55, segment.Metadata{}),
		cand("above", "tentang puasa", 0.80, segment.Metadata{}),
	}, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "above", got[0].Chunk.Chunk.ID)
	assert.Equal(t, "at-floor", got[1].Chunk.Chunk.ID)
}

func TestRerankScoreBounds(t *testing.T) {
	h := NewHybrid(DefaultConfig())

	text := strings.Repeat("puasa ", 120) // long, every keyword present
	meta := segment.Metadata{
		RecordNumber: "1",
		Attribution:  "Bukhari",
		SourceWork:   "Shahih Bukhari",
		Grade:        segment.GradeAuthentic,
	}

	got := rerank(t, h, "puasa puasa", []vectorstore.ScoredChunk{
		cand("max", text, 1.0, meta),
		cand("min", strings.Repeat("x", 250), 0.55, segment.Metadata{}),
	}, 10)

	require.Len(t, got, 2)
	for _, r := range got {
		assert.GreaterOrEqual(t, r.FinalScore, 0.0)
		assert.LessOrEqual(t, r.FinalScore, 1.0)
	}
	assert.Equal(t, 1.0, got[0].FinalScore)
}

func TestRerankKeywordOverlap(t *testing.T) {
	h := NewHybrid(DefaultConfig())

	got := rerank(t, h, "puasa ramadhan", []vectorstore.ScoredChunk{
		cand("both", strings.Repeat("berpuasa di bulan ramadhan ", 10), 0.70, segment.Metadata{}),
		cand("none", strings.Repeat("tentang zakat fitrah saja ", 10), 0.70, segment.Metadata{}),
	}, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "both", got[0].Chunk.Chunk.ID)
	assert.Equal(t, 1.0, got[0].KeywordScore)
	assert.Equal(t, 0.0, got[1].KeywordScore)
	assert.Greater(t, got[0].FinalScore, got[1].FinalScore)
}

func TestRerankLengthBoundaries(t *testing.T) {
	h := NewHybrid(DefaultConfig())
	base := 0.7 * 0.8 // similarity term only; no keywords match

	tests := []struct {
		name   string
		length int
		want   float64
	}{
		{name: "short penalized", length: 199, want: base - 0.05},
		{name: "short boundary unpenalized", length: 200, want: base},
		{name: "long boundary unboosted", length: 500, want: base},
		{name: "long boosted", length: 501, want: base + 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rerank(t, h, "query", []vectorstore.ScoredChunk{
				cand("a", strings.Repeat("x", tt.length), 0.8, segment.Metadata{}),
			}, 1)
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want, got[0].FinalScore, 1e-9)
		})
	}
}

func TestRerankMetadataBoosts(t *testing.T) {
	h := NewHybrid(DefaultConfig())
	text := strings.Repeat("x", 300) // boost-neutral length

	plainScore := rerank(t, h, "query", []vectorstore.ScoredChunk{
		cand("a", text, 0.8, segment.Metadata{}),
	}, 1)[0].FinalScore

	tests := []struct {
		name  string
		meta  segment.Metadata
		boost float64
	}{
		{name: "record number", meta: segment.Metadata{RecordNumber: "7"}, boost: 0.05},
		{name: "attribution", meta: segment.Metadata{Attribution: "Bukhari"}, boost: 0.05},
		{name: "source work", meta: segment.Metadata{SourceWork: "Shahih Bukhari"}, boost: 0.05},
		{name: "authentic grade", meta: segment.Metadata{Grade: segment.GradeAuthentic}, boost: 0.10},
		{name: "weak grade unboosted", meta: segment.Metadata{Grade: segment.GradeWeak}, boost: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rerank(t, h, "query", []vectorstore.ScoredChunk{
				cand("a", text, 0.8, tt.meta),
			}, 1)
			require.Len(t, got, 1)
			assert.InDelta(t, plainScore+tt.boost, got[0].FinalScore, 1e-9)
		})
	}
}

func TestRerankPhraseBoost(t *testing.T) {
	h := NewHybrid(DefaultConfig())
	filler := strings.Repeat("kata ", 60)

	got := rerank(t, h, "niat dalam beramal", []vectorstore.ScoredChunk{
		cand("exact", filler+"niat dalam beramal itu penting", 0.70, segment.Metadata{}),
		cand("scattered", filler+"beramal perlu niat tulus serta hati ikhlas", 0.70, segment.Metadata{}),
	}, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "exact", got[0].Chunk.Chunk.ID)
	// Same keywords either way; only the verbatim phrase separates them.
	assert.InDelta(t, got[1].FinalScore+0.10, got[0].FinalScore, 1e-9)
}

func TestRerankDeterministicTieBreak(t *testing.T) {
	h := NewHybrid(DefaultConfig())
	text := strings.Repeat("x", 300)

	for i := 0; i < 5; i++ {
		got := rerank(t, h, "query", []vectorstore.ScoredChunk{
			cand("b", text, 0.8, segment.Metadata{}),
			cand("a", text, 0.8, segment.Metadata{}),
			cand("c", text, 0.9, segment.Metadata{}),
		}, 10)

		require.Len(t, got, 3)
		assert.Equal(t, "c", got[0].Chunk.Chunk.ID)
		assert.Equal(t, "a", got[1].Chunk.Chunk.ID)
		assert.Equal(t, "b", got[2].Chunk.Chunk.ID)
	}
}

func TestRerankTopKTruncation(t *testing.T) {
	h := NewHybrid(DefaultConfig())

	cands := make([]vectorstore.ScoredChunk, 10)
	for i := range cands {
		cands[i] = cand(string(rune('a'+i)), strings.Repeat("x", 300), 0.60+float64(i)*0.01, segment.Metadata{})
	}

	got := rerank(t, h, "query", cands, 3)
	require.Len(t, got, 3)
	// Highest similarity wins when nothing else differs.
	assert.Equal(t, "j", got[0].Chunk.Chunk.ID)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"puasa di bulan Ramadhan", []string{"puasa", "bulan", "ramadhan"}},
		{"yang dan untuk", nil},
		{"niat, niat, NIAT!", []string{"niat"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := Tokenize(tt.in)
		if tt.want == nil {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, tt.want, got)
		}
	}
}
