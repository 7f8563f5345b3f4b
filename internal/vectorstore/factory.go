package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/fikralabs/hadisd/internal/config"
	"github.com/fikralabs/hadisd/internal/logging"
)

// New builds the configured index backend.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Index, error) {
	switch cfg.VectorStore.Provider {
	case "chromem":
		return NewChromemIndex(ChromemConfig{
			Path:       cfg.VectorStore.Chromem.Path,
			Collection: cfg.VectorStore.Chromem.Collection,
			VectorSize: cfg.Embeddings.Dimension,
		}, logger)
	case "qdrant":
		return NewQdrantIndex(ctx, QdrantConfig{
			Host:           cfg.Qdrant.Host,
			Port:           cfg.Qdrant.Port,
			UseTLS:         cfg.Qdrant.UseTLS,
			APIKey:         cfg.Qdrant.APIKey.Value(),
			Collection:     cfg.Qdrant.Collection,
			VectorSize:     cfg.Embeddings.Dimension,
			RequestTimeout: time.Duration(cfg.Qdrant.RequestTimeout),
			RetryAttempts:  cfg.Qdrant.RetryAttempts,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown vector store provider %q",
			ErrInvalidConfig, cfg.VectorStore.Provider)
	}
}
