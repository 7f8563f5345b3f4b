// Package embeddings generates dense vectors for queries and documents
// via a text-embeddings-inference (TEI) server.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates the provider could not produce vectors.
	// Callers treat it as a transient provider outage.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider produces embedding vectors. Implementations must be safe for
// concurrent use.
type Provider interface {
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of document chunks.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector size this provider produces.
	Dimension() int

	// Close releases provider resources.
	Close() error
}

// IsUnavailable reports whether err indicates a provider outage rather
// than bad input. Outages degrade a search; bad input fails it.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrEmbeddingFailed) ||
		errors.Is(err, context.DeadlineExceeded)
}
