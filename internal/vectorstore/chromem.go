package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fikralabs/hadisd/internal/logging"
)

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the persistence directory. Empty means in-memory, which
	// is what tests use.
	Path string

	// Compress enables gzip compression for persisted data.
	Compress bool

	// Collection is the chunk collection name.
	Collection string

	// VectorSize is the expected embedding dimension.
	VectorSize int
}

// ApplyDefaults sets defaults for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "hadis_chunks"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemIndex implements Index with an embedded chromem-go database.
// It needs no external service, which suits single-binary deployments
// and tests. Filters are applied after the ANN query because chromem
// only supports exact metadata matches.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *logging.Logger
}

// NewChromemIndex opens or creates the chunk collection.
func NewChromemIndex(config ChromemConfig, logger *logging.Logger) (*ChromemIndex, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		path, err := expandPath(config.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", path, err)
		}
		db, err = chromem.NewPersistentDB(path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem DB: %w", err)
		}
	}

	// All reads and writes go through explicit vectors; the embedding
	// func must never be reached.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", config.Collection, err)
	}

	logger.Info(context.Background(), "chromem store initialized",
		zap.String("path", config.Path),
		zap.String("collection", config.Collection),
		zap.Int("vector_size", config.VectorSize),
	)

	return &ChromemIndex{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
	}, nil
}

func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("chromem index requires explicit vectors")
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Upsert inserts or replaces chunks by ID.
func (s *ChromemIndex) Upsert(ctx context.Context, chunks []StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) != s.config.VectorSize {
			return fmt.Errorf("%w: chunk %s has vector size %d, want %d",
				ErrInvalidConfig, c.Chunk.ID, len(c.Vector), s.config.VectorSize)
		}
		docs[i] = chromem.Document{
			ID:        c.Chunk.ID,
			Content:   c.Chunk.Text,
			Metadata:  chunkPayload(c),
			Embedding: c.Vector,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug(ctx, "upserted chunks into chromem",
		zap.Int("count", len(chunks)),
	)
	return nil
}

// Query returns the limit nearest chunks. Filtering happens after the
// ANN query, so the query oversamples when a filter is present.
func (s *ChromemIndex) Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredChunk, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}

	count := s.collection.Count()
	if count == 0 {
		return []ScoredChunk{}, nil
	}

	n := limit
	if !filter.IsZero() {
		n = limit * 4
	}
	if n > count {
		n = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	hits := make([]ScoredChunk, 0, limit)
	for _, r := range results {
		stored := chunkFromPayload(r.ID, r.Metadata)
		if !filter.matchesDocument(stored.DocumentID) {
			continue
		}
		if !filter.matchesWork(stored.Chunk.Metadata.SourceWork) {
			continue
		}
		hits = append(hits, ScoredChunk{
			Chunk:      stored.Chunk,
			DocumentID: stored.DocumentID,
			Similarity: clampSimilarity(float64(r.Similarity)),
		})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Get retrieves stored chunks by ID. Unknown IDs are skipped.
func (s *ChromemIndex) Get(ctx context.Context, ids []string) ([]StoredChunk, error) {
	chunks := make([]StoredChunk, 0, len(ids))
	for _, id := range ids {
		doc, err := s.collection.GetByID(ctx, id)
		if err != nil {
			continue
		}
		stored := chunkFromPayload(doc.ID, doc.Metadata)
		stored.Vector = doc.Embedding
		chunks = append(chunks, stored)
	}
	return chunks, nil
}

// Delete removes chunks by ID.
func (s *ChromemIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// Health always succeeds for the embedded store.
func (s *ChromemIndex) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op; chromem persists on write.
func (s *ChromemIndex) Close() error {
	return nil
}

var _ Index = (*ChromemIndex)(nil)
