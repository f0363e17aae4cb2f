package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "test-model",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "你好"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

func newTestClient(url string, stats *LLMStats) *Client {
	return NewClient(ClientConfig{
		APIKey:    "test-key",
		BaseURL:   url + "/v1/",
		Model:     "test-model",
		MaxTokens: 2048,
		Timeout:   5 * time.Second,
	}, stats)
}

func TestClientComplete(t *testing.T) {
	var req map[string]any
	srv := chatServer(t, http.StatusOK, okBody, &req)
	stats := NewLLMStats(time.Hour)
	c := newTestClient(srv.URL, stats)

	resp, err := c.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "earlier"},
			{Role: RoleUser, Content: "again"},
		},
		MaxTokens:   100000,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "你好", resp.Text)
	assert.EqualValues(t, 12, resp.PromptTokens)
	assert.EqualValues(t, 3, resp.CompletionTokens)

	assert.Equal(t, "test-model", req["model"])
	assert.EqualValues(t, 2048, req["max_tokens"], "request limit is capped by the client")
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.EqualValues(t, 12, snap.PromptTokens)
	assert.Zero(t, snap.Errors)
}

func TestClientRetryableStatus(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		srv := chatServer(t, status, `{"error": {"message": "slow down", "type": "rate_limit"}}`, nil)
		stats := NewLLMStats(time.Hour)
		_, err := newTestClient(srv.URL, stats).Complete(context.Background(), Request{
			Messages: []Message{{Role: RoleUser, Content: "x"}},
		})
		var re *RetryableError
		require.True(t, errors.As(err, &re), "status %d: %v", status, err)
		assert.Equal(t, status, re.StatusCode)
		assert.EqualValues(t, 1, stats.Snapshot().Errors)
	}
}

func TestClientPermanentStatus(t *testing.T) {
	srv := chatServer(t, http.StatusBadRequest, `{"error": {"message": "bad model", "type": "invalid_request_error"}}`, nil)
	_, err := newTestClient(srv.URL, nil).Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	})
	require.Error(t, err)
	var re *RetryableError
	assert.False(t, errors.As(err, &re))
}

func TestClientEmptyChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`, nil)
	_, err := newTestClient(srv.URL, nil).Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	})
	assert.ErrorContains(t, err, "empty response")
}
