package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fikralabs/hadisd/internal/embeddings"
	"github.com/fikralabs/hadisd/internal/logging"
	"github.com/fikralabs/hadisd/internal/segment"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

// Page is one page of raw document text to be indexed.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Indexer segments, embeds, and upserts documents into the index.
type Indexer struct {
	segmenter *segment.Segmenter
	provider  embeddings.Provider
	index     vectorstore.Index
	logger    *logging.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(segmenter *segment.Segmenter, provider embeddings.Provider, index vectorstore.Index, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Indexer{
		segmenter: segmenter,
		provider:  provider,
		index:     index,
		logger:    logger,
	}
}

// IndexDocument chunks every page, embeds the chunks in one batch, and
// upserts them. It returns the IDs of the stored chunks; a document
// whose pages clean down to nothing yields no chunks and no error.
func (ix *Indexer) IndexDocument(ctx context.Context, documentID string, pages []Page) ([]string, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document ID cannot be empty")
	}

	var chunks []segment.Chunk
	for _, page := range pages {
		chunks = append(chunks, ix.segmenter.Segment(page.Text, page.Number)...)
	}
	if len(chunks) == 0 {
		ix.logger.Warn(ctx, "document produced no chunks",
			zap.String("document_id", documentID),
			zap.Int("pages", len(pages)),
		)
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	stored := make([]vectorstore.StoredChunk, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		stored[i] = vectorstore.StoredChunk{
			Chunk:      c,
			DocumentID: documentID,
			Vector:     vectors[i],
		}
		ids[i] = c.ID
	}

	if err := ix.index.Upsert(ctx, stored); err != nil {
		return nil, fmt.Errorf("upserting %d chunks: %w", len(stored), err)
	}

	ix.logger.Info(ctx, "document indexed",
		zap.String("document_id", documentID),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return ids, nil
}

// RemoveChunks deletes previously indexed chunks.
func (ix *Indexer) RemoveChunks(ctx context.Context, ids []string) error {
	return ix.index.Delete(ctx, ids)
}
