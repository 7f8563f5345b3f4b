// Package vectorstore provides the ANN index backends used for chunk
// retrieval: a remote Qdrant collection over gRPC, or an embedded
// chromem-go store for single-binary deployments.
package vectorstore

import (
	"context"
	"errors"

	"github.com/fikralabs/hadisd/internal/segment"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedFilter indicates a filter that can never match and
	// must be rejected rather than silently ignored.
	ErrMalformedFilter = errors.New("malformed filter")

	// ErrIndexUnavailable indicates the index could not be reached.
	// Callers treat it as a transient outage.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrCollectionNotFound indicates the collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
)

// StoredChunk is a chunk as persisted in the index: the segmented text
// plus its owning document and embedding vector.
type StoredChunk struct {
	Chunk      segment.Chunk
	DocumentID string
	Vector     []float32
}

// ScoredChunk is a query hit with its raw cosine similarity in [0, 1].
type ScoredChunk struct {
	Chunk      segment.Chunk
	DocumentID string
	Similarity float64
}

// Index is a vector search backend. Implementations must be safe for
// concurrent use.
type Index interface {
	// Upsert inserts or replaces chunks by ID.
	Upsert(ctx context.Context, chunks []StoredChunk) error

	// Query returns up to limit chunks nearest to vector, most similar
	// first. A nil filter matches everything.
	Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredChunk, error)

	// Get retrieves stored chunks by ID. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]StoredChunk, error)

	// Delete removes chunks by ID.
	Delete(ctx context.Context, ids []string) error

	// Health checks backend reachability.
	Health(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// IsUnavailable reports whether err indicates an index outage rather
// than bad input.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrIndexUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
