package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTEIServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func TestNewService_RequiresBaseURL(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestService_EmbedDocuments(t *testing.T) {
	want := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	server := newTEIServer(t, want)
	defer server.Close()

	svc, err := NewService(ServiceConfig{BaseURL: server.URL, Model: "test-model"})
	require.NoError(t, err)

	got, err := svc.EmbedDocuments(context.Background(), []string{"first task", "second task"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_EmbedDocuments_EmptyInput(t *testing.T) {
	server := newTEIServer(t, nil)
	defer server.Close()

	svc, err := NewService(ServiceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestService_EmbedQuery(t *testing.T) {
	server := newTEIServer(t, [][]float32{{0.5, 0.6}})
	defer server.Close()

	svc, err := NewService(ServiceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	got, err := svc.EmbedQuery(context.Background(), "prepare the quarterly report")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, got)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestService_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewService(ServiceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
