package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikralabs/hadisd/internal/segment"
)

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex(ChromemConfig{VectorSize: 3}, nil)
	require.NoError(t, err)
	return idx
}

func storedChunk(id, docID, text string, meta segment.Metadata, vec []float32) StoredChunk {
	return StoredChunk{
		Chunk: segment.Chunk{
			ID:       id,
			Text:     text,
			Metadata: meta,
		},
		DocumentID: docID,
		Vector:     vec,
	}
}

func TestChromemUpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []StoredChunk{
		storedChunk("a", "doc-1", "tentang niat",
			segment.Metadata{SourceWork: "Shahih Bukhari"}, []float32{1, 0, 0}),
		storedChunk("b", "doc-1", "tentang puasa",
			segment.Metadata{SourceWork: "Shahih Muslim"}, []float32{0, 1, 0}),
		storedChunk("c", "doc-2", "tentang zakat",
			segment.Metadata{}, []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Equal(t, "a", hits[0].Chunk.ID)
	assert.Equal(t, "doc-1", hits[0].DocumentID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-4)
	assert.Equal(t, "Shahih Bukhari", hits[0].Chunk.Metadata.SourceWork)
}

func TestChromemQueryFilters(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []StoredChunk{
		storedChunk("a", "doc-1", "satu",
			segment.Metadata{SourceWork: "Shahih Bukhari"}, []float32{1, 0, 0}),
		storedChunk("b", "doc-2", "dua",
			segment.Metadata{SourceWork: "Shahih Muslim"}, []float32{0.9, 0.1, 0}),
	})
	require.NoError(t, err)

	// Substring match on the work name.
	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 5, &Filter{SourceWork: "muslim"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Chunk.ID)

	// Document restriction.
	hits, err = idx.Query(ctx, []float32{1, 0, 0}, 5, &Filter{DocumentIDs: []string{"doc-1"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Chunk.ID)

	// Malformed filters are rejected, not ignored.
	_, err = idx.Query(ctx, []float32{1, 0, 0}, 5, &Filter{DocumentIDs: []string{""}})
	assert.ErrorIs(t, err, ErrMalformedFilter)
}

func TestChromemQueryEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestChromemUpsertVectorSizeMismatch(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Upsert(context.Background(), []StoredChunk{
		storedChunk("a", "doc-1", "teks", segment.Metadata{}, []float32{1, 0}),
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestChromemGetAndDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	meta := segment.Metadata{RecordNumber: "7", Grade: segment.GradeAuthentic}
	require.NoError(t, idx.Upsert(ctx, []StoredChunk{
		storedChunk("a", "doc-1", "teks hadis", meta, []float32{1, 0, 0}),
	}))

	got, err := idx.Get(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "teks hadis", got[0].Chunk.Text)
	assert.Equal(t, meta.RecordNumber, got[0].Chunk.Metadata.RecordNumber)
	assert.Equal(t, segment.GradeAuthentic, got[0].Chunk.Metadata.Grade)

	require.NoError(t, idx.Delete(ctx, []string{"a"}))
	got, err = idx.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
