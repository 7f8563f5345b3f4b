package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fikralabs/hadisd/internal/cache"
	"github.com/fikralabs/hadisd/internal/embeddings"
	"github.com/fikralabs/hadisd/internal/logging"
	"github.com/fikralabs/hadisd/internal/reranker"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

// Options holds the pipeline settings.
type Options struct {
	// TopK is the default result count.
	TopK int

	// Oversample multiplies TopK for the index query so floor
	// filtering and re-ranking have headroom.
	Oversample int
}

func (o *Options) applyDefaults() {
	if o.TopK == 0 {
		o.TopK = 5
	}
	if o.Oversample == 0 {
		o.Oversample = 3
	}
}

// Service runs searches end to end. It is safe for concurrent use.
type Service struct {
	provider embeddings.Provider
	index    vectorstore.Index
	ranker   reranker.Reranker

	embedCache  *cache.EmbeddingCache
	resultCache *cache.ResultCache[Hit]

	opts    Options
	logger  *logging.Logger
	metrics *Metrics
}

// NewService wires the search pipeline together.
func NewService(
	provider embeddings.Provider,
	index vectorstore.Index,
	ranker reranker.Reranker,
	embedCache *cache.EmbeddingCache,
	resultCache *cache.ResultCache[Hit],
	opts Options,
	logger *logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts.applyDefaults()

	return &Service{
		provider:    provider,
		index:       index,
		ranker:      ranker,
		embedCache:  embedCache,
		resultCache: resultCache,
		opts:        opts,
		logger:      logger,
		metrics:     NewMetrics(),
	}
}

// Search answers a query. A blank query returns an empty result. A
// dependency outage returns an empty degraded result rather than an
// error; only malformed input and internal faults error out.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{Query: req.Query, Hits: []Hit{}}, nil
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.opts.TopK
	}

	filter := s.buildFilter(req)
	if err := filter.Validate(); err != nil {
		return Result{}, err
	}

	// Result cache short-circuits the whole pipeline.
	if hits, ok := s.resultCache.Get(query, req.SourceWork, req.DocumentIDs); ok {
		s.metrics.RecordSearch(ctx, time.Since(start), len(hits), "result_cache")
		return Result{Query: query, Hits: hits, CacheHit: true}, nil
	}

	vector, err := s.queryVector(ctx, query)
	if err != nil {
		if embeddings.IsUnavailable(err) {
			s.logger.Warn(ctx, "embedding provider unavailable, degrading search",
				zap.Error(err),
			)
			s.metrics.RecordDegraded(ctx, DegradedEmbeddings)
			return Result{Query: query, Hits: []Hit{}, Degraded: true, DegradedReason: DegradedEmbeddings}, nil
		}
		return Result{}, fmt.Errorf("%w: embedding query: %v", ErrSearchFailed, err)
	}

	candidates, err := s.index.Query(ctx, vector, topK*s.opts.Oversample, filter)
	if err != nil {
		if vectorstore.IsUnavailable(err) {
			s.logger.Warn(ctx, "vector index unavailable, degrading search",
				zap.Error(err),
			)
			s.metrics.RecordDegraded(ctx, DegradedIndex)
			return Result{Query: query, Hits: []Hit{}, Degraded: true, DegradedReason: DegradedIndex}, nil
		}
		if errors.Is(err, vectorstore.ErrMalformedFilter) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: querying index: %v", ErrSearchFailed, err)
	}

	ranked, err := s.ranker.Rerank(ctx, query, candidates, topK)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reranking: %v", ErrSearchFailed, err)
	}

	hits := make([]Hit, len(ranked))
	for i, r := range ranked {
		hits[i] = Hit{
			ChunkID:      r.Chunk.Chunk.ID,
			DocumentID:   r.Chunk.DocumentID,
			Text:         r.Chunk.Chunk.Text,
			PageNumber:   r.Chunk.Chunk.PageNumber,
			Metadata:     r.Chunk.Chunk.Metadata,
			Similarity:   r.Chunk.Similarity,
			KeywordScore: r.KeywordScore,
			FinalScore:   r.FinalScore,
		}
	}

	s.resultCache.Set(query, req.SourceWork, req.DocumentIDs, hits)
	s.metrics.RecordSearch(ctx, time.Since(start), len(hits), "full")

	s.logger.Debug(ctx, "search completed",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("hits", len(hits)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Result{Query: query, Hits: hits}, nil
}

// queryVector returns the query embedding, consulting the embedding
// cache first.
func (s *Service) queryVector(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := s.embedCache.Get(query); ok {
		return vec, nil
	}

	vec, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	s.embedCache.Set(query, vec)
	return vec, nil
}

// ClearResultCache invalidates cached search results. The embedding
// cache is left alone: embeddings only change when the model does.
func (s *Service) ClearResultCache() {
	s.resultCache.Clear()
	s.logger.Info(context.Background(), "result cache cleared")
}

// Health reports dependency reachability.
func (s *Service) Health(ctx context.Context) error {
	return s.index.Health(ctx)
}

func (s *Service) buildFilter(req Request) *vectorstore.Filter {
	if req.SourceWork == "" && len(req.DocumentIDs) == 0 {
		return nil
	}
	return &vectorstore.Filter{
		SourceWork:  req.SourceWork,
		DocumentIDs: req.DocumentIDs,
	}
}
