package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		Model:     "BAAI/bge-small-en-v1.5",
		Dimension: 3,
		Timeout:   2 * time.Second,
	}
}

func TestTEIEmbedQuery(t *testing.T) {
	var gotBody teiRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode([][]float32{{0.1, 0.2, 0.3}})
	})

	svc, err := NewTEIService(testConfig(srv.URL))
	require.NoError(t, err)
	defer svc.Close()

	vec, err := svc.EmbedQuery(context.Background(), "niat dalam beramal")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "niat dalam beramal", gotBody.Inputs)
	assert.True(t, gotBody.Truncate)
}

func TestTEIEmbedDocuments(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float32{{1, 0, 0}, {0, 1, 0}})
	})

	svc, err := NewTEIService(testConfig(srv.URL))
	require.NoError(t, err)
	defer svc.Close()

	vecs, err := svc.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0, 1, 0}, vecs[1])
}

func TestTEIEmptyInput(t *testing.T) {
	svc, err := NewTEIService(testConfig("http://localhost:1"))
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTEIServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	svc, err := NewTEIService(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.True(t, IsUnavailable(err))
}

func TestTEIVectorCountMismatch(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float32{{1, 0, 0}})
	})

	svc, err := NewTEIService(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestTEIConfigValidate(t *testing.T) {
	_, err := NewTEIService(Config{Dimension: 3})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTEIService(Config{BaseURL: "http://x", Dimension: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
