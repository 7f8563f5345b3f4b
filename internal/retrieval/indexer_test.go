package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikralabs/hadisd/internal/segment"
)

func newTestIndexer(provider *fakeProvider, index *fakeIndex) *Indexer {
	return NewIndexer(segment.NewSegmenter(400, 80), provider, index, nil)
}

func TestIndexDocument(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{}
	ix := newTestIndexer(provider, index)

	pages := []Page{
		{Number: 1, Text: "Hadis 1 " + strings.Repeat("tentang niat dan amal ", 10)},
		{Number: 2, Text: "Hadis 2 " + strings.Repeat("tentang kebersihan iman ", 10)},
	}

	ids, err := ix.IndexDocument(context.Background(), "doc-1", pages)
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	assert.Len(t, index.upserted, len(ids))
	assert.Equal(t, 1, provider.docCalls)
	for _, c := range index.upserted {
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Len(t, c.Vector, 3)
		assert.NotEmpty(t, c.Chunk.Text)
	}
}

func TestIndexDocumentEmptyPages(t *testing.T) {
	provider := &fakeProvider{}
	index := &fakeIndex{}
	ix := newTestIndexer(provider, index)

	ids, err := ix.IndexDocument(context.Background(), "doc-1", []Page{
		{Number: 1, Text: "   "},
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, provider.docCalls)
	assert.Empty(t, index.upserted)
}

func TestIndexDocumentRequiresID(t *testing.T) {
	ix := newTestIndexer(&fakeProvider{}, &fakeIndex{})

	_, err := ix.IndexDocument(context.Background(), "", []Page{{Number: 1, Text: "teks"}})
	assert.Error(t, err)
}

func TestRemoveChunks(t *testing.T) {
	index := &fakeIndex{}
	ix := newTestIndexer(&fakeProvider{}, index)

	require.NoError(t, ix.RemoveChunks(context.Background(), []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, index.deleted)
}
