package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/content-gate/internal/resilience"
)

// newTestClient creates a client pointing at a local test server with SDK
// retries disabled.
func newTestClient(baseURL string) Client {
	return NewClient("test-key", option.WithBaseURL(baseURL), option.WithMaxRetries(0))
}

func messageBody(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-sonnet-4-5-20250929",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":                10,
			"output_tokens":               5,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     120,
		},
	}
}

func errorServer(t *testing.T, status int, errType string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type":  "error",
			"error": map[string]any{"type": errType, "message": "failure"},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSDKClient_CreateMessage(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageBody("Es war einmal ein Fuchs.")) //nolint:errcheck
	}))
	defer ts.Close()

	temp := 0.4
	resp, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   1024,
		System:      BuildCachedSystemBlocks("Du schreibst Kindergeschichten.", ""),
		Prompt:      "Schreibe eine Geschichte.",
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Es war einmal ein Fuchs.", resp.Text())
	assert.Equal(t, int64(120), resp.Usage.CacheReadTokens)
	assert.False(t, resp.Truncated())

	assert.InDelta(t, 0.4, got["temperature"], 1e-9)
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
	system, ok := got["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	block := system[0].(map[string]any)
	assert.Contains(t, block, "cache_control")
}

func TestSDKClient_CreateMessage_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errType   string
		transient bool
	}{
		{"server error", http.StatusInternalServerError, "api_error", true},
		{"rate limited", http.StatusTooManyRequests, "rate_limit_error", true},
		{"overloaded", 529, "overloaded_error", true},
		{"bad request", http.StatusBadRequest, "invalid_request_error", false},
		{"unauthorized", http.StatusUnauthorized, "authentication_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := errorServer(t, tt.status, tt.errType)

			_, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
				Model:     "claude-sonnet-4-5-20250929",
				MaxTokens: 64,
				Prompt:    "Hello",
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "anthropic: create message")
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

func TestClientOptions(t *testing.T) {
	assert.Empty(t, ClientOptions(config0()))

	c := config0()
	c.BaseURL = "http://localhost:9999"
	c.TimeoutSecs = 30
	assert.Len(t, ClientOptions(c), 2)
}
