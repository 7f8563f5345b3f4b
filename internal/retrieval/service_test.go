package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikralabs/hadisd/internal/cache"
	"github.com/fikralabs/hadisd/internal/embeddings"
	"github.com/fikralabs/hadisd/internal/reranker"
	"github.com/fikralabs/hadisd/internal/segment"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

type fakeProvider struct {
	queryCalls int
	docCalls   int
	err        error
}

func (p *fakeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	p.queryCalls++
	if p.err != nil {
		return nil, p.err
	}
	return []float32{1, 0, 0}, nil
}

func (p *fakeProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	p.docCalls++
	if p.err != nil {
		return nil, p.err
	}
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{1, 0, 0}
	}
	return vecs, nil
}

func (p *fakeProvider) Dimension() int { return 3 }
func (p *fakeProvider) Close() error   { return nil }

type fakeIndex struct {
	queryCalls int
	hits       []vectorstore.ScoredChunk
	err        error
	upserted   []vectorstore.StoredChunk
	deleted    []string
}

func (ix *fakeIndex) Query(ctx context.Context, vector []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.ScoredChunk, error) {
	ix.queryCalls++
	if ix.err != nil {
		return nil, ix.err
	}
	return ix.hits, nil
}

func (ix *fakeIndex) Upsert(ctx context.Context, chunks []vectorstore.StoredChunk) error {
	ix.upserted = append(ix.upserted, chunks...)
	return ix.err
}

func (ix *fakeIndex) Get(ctx context.Context, ids []string) ([]vectorstore.StoredChunk, error) {
	return nil, nil
}

func (ix *fakeIndex) Delete(ctx context.Context, ids []string) error {
	ix.deleted = append(ix.deleted, ids...)
	return nil
}

func (ix *fakeIndex) Health(ctx context.Context) error { return nil }
func (ix *fakeIndex) Close() error                     { return nil }

func hit(id string, sim float64) vectorstore.ScoredChunk {
	return vectorstore.ScoredChunk{
		Chunk: segment.Chunk{
			ID:   id,
			Text: strings.Repeat("tentang puasa ramadhan ", 15),
		},
		DocumentID: "doc-1",
		Similarity: sim,
	}
}

func newTestService(provider *fakeProvider, index *fakeIndex) *Service {
	return NewService(
		provider,
		index,
		reranker.NewHybrid(reranker.DefaultConfig()),
		cache.NewEmbeddingCache(time.Minute, 128, nil),
		cache.NewResultCache[Hit](time.Minute, 128),
		Options{TopK: 5, Oversample: 3},
		nil,
	)
}

func TestSearchEmptyQuery(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{}
	svc := newTestService(provider, index)

	res, err := svc.Search(context.Background(), Request{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.False(t, res.Degraded)
	assert.Zero(t, provider.queryCalls)
	assert.Zero(t, index.queryCalls)
}

func TestSearchFullPipeline(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{hits: []vectorstore.ScoredChunk{
		hit("a", 0.9),
		hit("b", 0.7),
		hit("c", 0.3), // below floor, dropped
	}}
	svc := newTestService(provider, index)

	res, err := svc.Search(context.Background(), Request{Query: "puasa ramadhan"})
	require.NoError(t, err)

	require.Len(t, res.Hits, 2)
	assert.Equal(t, "a", res.Hits[0].ChunkID)
	assert.Equal(t, "b", res.Hits[1].ChunkID)
	assert.False(t, res.CacheHit)
	assert.GreaterOrEqual(t, res.Hits[0].FinalScore, res.Hits[1].FinalScore)
	assert.Equal(t, 1, provider.queryCalls)
	assert.Equal(t, 1, index.queryCalls)
}

func TestSearchResultCacheHit(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{hits: []vectorstore.ScoredChunk{hit("a", 0.9)}}
	svc := newTestService(provider, index)

	first, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)
	require.Len(t, first.Hits, 1)

	second, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Hits, second.Hits)
	// Neither dependency is touched on a result cache hit.
	assert.Equal(t, 1, provider.queryCalls)
	assert.Equal(t, 1, index.queryCalls)
}

func TestSearchEmbeddingCacheAfterResultCacheClear(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{hits: []vectorstore.ScoredChunk{hit("a", 0.9)}}
	svc := newTestService(provider, index)

	_, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)

	svc.ClearResultCache()

	_, err = svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)

	// The index is queried again but the embedding is reused.
	assert.Equal(t, 1, provider.queryCalls)
	assert.Equal(t, 2, index.queryCalls)
}

func TestSearchDegradedOnProviderOutage(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("%w: connection refused", embeddings.ErrEmbeddingFailed)}
	index := &fakeIndex{}
	svc := newTestService(provider, index)

	res, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedEmbeddings, res.DegradedReason)
	assert.Empty(t, res.Hits)
	assert.Zero(t, index.queryCalls)
}

func TestSearchDegradedOnIndexOutage(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{err: fmt.Errorf("%w: dial timeout", vectorstore.ErrIndexUnavailable)}
	svc := newTestService(provider, index)

	res, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedIndex, res.DegradedReason)
	assert.Empty(t, res.Hits)
}

func TestSearchDegradedResultNotCached(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("%w: down", embeddings.ErrEmbeddingFailed)}
	index := &fakeIndex{hits: []vectorstore.ScoredChunk{hit("a", 0.9)}}
	svc := newTestService(provider, index)

	res, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)
	require.True(t, res.Degraded)

	// Once the provider recovers, the same query must run the full
	// pipeline instead of replaying the degraded emptiness.
	provider.err = nil
	res, err = svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.Len(t, res.Hits, 1)
}

func TestSearchMalformedFilter(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{}
	svc := newTestService(provider, index)

	_, err := svc.Search(context.Background(), Request{
		Query:       "puasa",
		DocumentIDs: []string{""},
	})
	assert.ErrorIs(t, err, vectorstore.ErrMalformedFilter)
	assert.Zero(t, provider.queryCalls)
}

func TestSearchGenuinelyEmptyIsNotDegraded(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{hits: []vectorstore.ScoredChunk{hit("a", 0.2)}}
	svc := newTestService(provider, index)

	res, err := svc.Search(context.Background(), Request{Query: "puasa"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.False(t, res.Degraded)
}
