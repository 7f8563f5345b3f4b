package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/fikralabs/hadisd/internal/logging"
)

// QdrantConfig configures the Qdrant gRPC backend.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string

	// Port is the Qdrant gRPC port (6334 by default, not the 6333
	// HTTP port).
	Port int

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// APIKey is the optional API key. Empty for local deployments.
	APIKey string

	// Collection is the chunk collection name.
	Collection string

	// VectorSize is the embedding dimension for collection creation.
	VectorSize int

	// MaxMessageSize is the maximum gRPC message size in bytes.
	MaxMessageSize int

	// RequestTimeout bounds individual requests.
	RequestTimeout time.Duration

	// RetryAttempts is the retry count for transient failures.
	RetryAttempts int
}

// ApplyDefaults sets defaults for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "hadis_chunks"
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
}

// Validate validates the configuration.
func (c *QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Port)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// QdrantIndex implements Index against a remote Qdrant collection.
type QdrantIndex struct {
	client *qdrant.Client
	config QdrantConfig
	logger *logging.Logger
}

// NewQdrantIndex connects to Qdrant and ensures the chunk collection
// exists.
func NewQdrantIndex(ctx context.Context, config QdrantConfig, logger *logging.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	qdrantConfig := &qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		APIKey: config.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	}
	if !config.UseTLS {
		qdrantConfig.GrpcOptions = append(qdrantConfig.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	idx := &QdrantIndex{
		client: client,
		config: config,
		logger: logger,
	}

	if err := idx.Health(ctx); err != nil {
		_ = client.Close()
		logger.Error(ctx, "qdrant health check failed",
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
			zap.Error(err),
		)
		return nil, err
	}

	if err := idx.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info(ctx, "qdrant connection established",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("collection", config.Collection),
	)
	return idx, nil
}

// Health checks the Qdrant connection.
func (q *QdrantIndex) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, q.config.RequestTimeout)
	defer cancel()

	if _, err := q.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// ensureCollection creates the chunk collection if it does not exist.
func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, q.config.RequestTimeout)
	defer cancel()

	return q.retryOperation(ctx, func() error {
		exists, err := q.client.CollectionExists(ctx, q.config.Collection)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.config.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.config.VectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
}

// Upsert inserts or replaces chunks by ID.
func (q *QdrantIndex) Upsert(ctx context.Context, chunks []StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.RequestTimeout)
	defer cancel()

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(c.Chunk.ID),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: toQdrantPayload(chunkPayload(c)),
		}
	}

	return q.retryOperation(ctx, func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.config.Collection,
			Points:         points,
		})
		return err
	})
}

// Query returns the limit nearest chunks, filtered server-side.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredChunk, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.RequestTimeout)
	defer cancel()

	var results []*qdrant.ScoredPoint
	err := q.retryOperation(ctx, func() error {
		res, err := q.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: q.config.Collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         toQdrantFilter(filter),
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	hits := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		stored := chunkFromPayload(pointID(r.Id), fromQdrantPayload(r.Payload))
		hits = append(hits, ScoredChunk{
			Chunk:      stored.Chunk,
			DocumentID: stored.DocumentID,
			Similarity: clampSimilarity(float64(r.Score)),
		})
	}
	return hits, nil
}

// Get retrieves stored chunks by ID.
func (q *QdrantIndex) Get(ctx context.Context, ids []string) ([]StoredChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.RequestTimeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	var points []*qdrant.RetrievedPoint
	err := q.retryOperation(ctx, func() error {
		res, err := q.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: q.config.Collection,
			Ids:            pointIDs,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]StoredChunk, 0, len(points))
	for _, p := range points {
		stored := chunkFromPayload(pointID(p.Id), fromQdrantPayload(p.Payload))
		stored.Vector = pointVector(p.Vectors)
		chunks = append(chunks, stored)
	}
	return chunks, nil
}

// Delete removes chunks by ID.
func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.RequestTimeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	return q.retryOperation(ctx, func() error {
		_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: q.config.Collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{Ids: pointIDs},
				},
			},
		})
		return err
	})
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

// retryOperation retries an operation with exponential backoff. Only
// transient gRPC failures are retried; exhausted retries surface as
// ErrIndexUnavailable.
func (q *QdrantIndex) retryOperation(ctx context.Context, operation func() error) error {
	var lastErr error
	backoff := time.Second
	start := time.Now()

	for attempt := 0; attempt <= q.config.RetryAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				q.logger.Info(ctx, "qdrant operation recovered after retries",
					zap.Int("attempts", attempt),
					zap.Duration("total_time", time.Since(start)),
				)
			}
			return nil
		}

		lastErr = err
		if !isTransientError(err) {
			return classifyQdrantError(err)
		}
		if attempt == q.config.RetryAttempts {
			break
		}

		q.logger.Debug(ctx, "retrying qdrant operation",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", q.config.RetryAttempts),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled: %w", ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	q.logger.Warn(ctx, "qdrant operation failed after all retries",
		zap.Int("total_attempts", q.config.RetryAttempts+1),
		zap.Duration("total_time", time.Since(start)),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%w: after %d retries: %v", ErrIndexUnavailable, q.config.RetryAttempts, lastErr)
}

// isTransientError reports whether a gRPC error is worth retrying.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

func classifyQdrantError(err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return fmt.Errorf("%w: %v", ErrCollectionNotFound, err)
	}
	return err
}

// toQdrantFilter pushes the filter to the server: a full-text match on
// the source work and an any-of keyword match on document IDs.
func toQdrantFilter(f *Filter) *qdrant.Filter {
	if f.IsZero() {
		return nil
	}

	var must []*qdrant.Condition
	if f.SourceWork != "" {
		must = append(must, qdrant.NewMatchText(payloadSourceWork, f.SourceWork))
	}
	if len(f.DocumentIDs) > 0 {
		must = append(must, qdrant.NewMatchKeywords(payloadDocumentID, f.DocumentIDs...))
	}
	return &qdrant.Filter{Must: must}
}

func toQdrantPayload(p map[string]string) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(p))
	for k, v := range p {
		payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	return payload
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]string {
	p := make(map[string]string, len(payload))
	for k, v := range payload {
		if s := v.GetStringValue(); s != "" {
			p[k] = s
		}
	}
	return p
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	if num := id.GetNum(); num != 0 {
		return fmt.Sprintf("%d", num)
	}
	return ""
}

func pointVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	if vec := vectors.GetVector(); vec != nil {
		if dense := vec.GetDense(); dense != nil {
			return dense.GetData()
		}
		return vec.GetData()
	}
	return nil
}

// clampSimilarity bounds cosine scores to [0, 1]. Qdrant can report
// slightly negative scores for near-orthogonal vectors.
func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

var _ Index = (*QdrantIndex)(nil)
