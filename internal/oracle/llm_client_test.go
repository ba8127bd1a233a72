package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anthropicContent(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":      "msg_test",
		"type":    "message",
		"role":    "assistant",
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	require.NoError(t, err)
	return body
}

func openAIContent(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": text}},
		},
	})
	require.NoError(t, err)
	return body
}

func TestAnthropicClarifier_Clarify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, clarifyPrompt, req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Write(anthropicContent(t, `{"valid": true, "description": "Investigate the flaky deploy step", "confidence": 0.9}`))
	}))
	defer server.Close()

	c, err := newAnthropicClarifier(ProviderConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	got, err := c.Clarify(context.Background(), borderlineRecord())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Investigate the flaky deploy step", got.Description)
	assert.Equal(t, 0.9, got.Confidence)
}

func TestAnthropicClarifier_DropVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(anthropicContent(t, `{"valid": false, "confidence": 0.95}`))
	}))
	defer server.Close()

	c, err := newAnthropicClarifier(ProviderConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	got, err := c.Clarify(context.Background(), borderlineRecord())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnthropicClarifier_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(anthropicContent(t, `{"valid": true, "description": "Fix it", "confidence": 0.8}`))
	}))
	defer server.Close()

	c, err := newAnthropicClarifier(ProviderConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	got, err := c.Clarify(context.Background(), borderlineRecord())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicClarifier_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "bad model"}}`))
	}))
	defer server.Close()

	c, err := newAnthropicClarifier(ProviderConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	_, err = c.Clarify(context.Background(), borderlineRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClarifier_Clarify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Write(openAIContent(t, `{"valid": true, "description": "Investigate the flaky deploy step", "confidence": 0.85}`))
	}))
	defer server.Close()

	c, err := newOpenAIClarifier(ProviderConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	got, err := c.Clarify(context.Background(), borderlineRecord())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Investigate the flaky deploy step", got.Description)
}

func TestOpenAIClarifier_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	c, err := newOpenAIClarifier(ProviderConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	_, err = c.Clarify(context.Background(), borderlineRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
