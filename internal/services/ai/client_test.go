package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipescout/assistant/internal/config"
	"github.com/recipescout/assistant/internal/middleware"
)

func testConfig(baseURL string) *config.AIConfig {
	return &config.AIConfig{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		APIVersion:         "2023-06-01",
		Model:              "claude-sonnet-4-5-20250929",
		MaxTokens:          1024,
		Temperature:        0.7,
		MinRequestInterval: time.Millisecond,
		RequestTimeout:     5 * time.Second,
	}
}

func newTestClient(cfg *config.AIConfig) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(cfg, cfg.Key, logger, middleware.NewMetrics())
}

func successBody(text string) []byte {
	body, _ := json.Marshal(CompletionResponse{
		ID:         "msg_test",
		Type:       "message",
		Role:       "assistant",
		Content:    []ContentBlock{{Type: "text", Text: text}},
		Model:      "claude-sonnet-4-5-20250929",
		StopReason: "end_turn",
		Usage:      Usage{InputTokens: 10, OutputTokens: 5},
	})
	return body
}

func TestSend_Success(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))

		var req CompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-5-20250929", req.Model)
		assert.Equal(t, 1024, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Write(successBody("Hello there!"))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	resp, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "system", 0.7)

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "Hello there!", resp.Content[0].Text)
	assert.Equal(t, 1, client.RequestCount())
	assert.Equal(t, 15, client.TotalTokensUsed())
}

func TestSend_MissingKeySkipsNetwork(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = ""
	client := newTestClient(cfg)

	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrMissingAPIKey, apiErr.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&attempts))
	assert.False(t, client.IsConfigured())
}

func TestSend_UnauthorizedNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrInvalidAPIKey, apiErr.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	assert.Equal(t, 0, client.RequestCount())
}

func TestSend_RateLimitedRetriesWithHint(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("retry-after", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(successBody("Recovered"))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	resp, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, "Recovered", resp.Content[0].Text)
	// Counters reflect one successful request, not two attempts.
	assert.Equal(t, 1, client.RequestCount())
	assert.Equal(t, 15, client.TotalTokensUsed())
}

func TestSend_RateLimitedWithoutHintFailsImmediately(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrRateLimitExceeded, apiErr.Kind)
	assert.Equal(t, -1, apiErr.RetryAfter)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestSend_BadRequestCarriesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens is too large"}}`))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrHTTP, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "max_tokens is too large", apiErr.Message)
}

func TestSend_BadRequestFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("plain text failure"))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "plain text failure", apiErr.Message)
}

func TestSend_ServerErrorRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(successBody("Back up"))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))

	start := time.Now()
	resp, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, "Back up", resp.Content[0].Text)
	// First backoff is 1<<0 seconds.
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestSend_DecodeFailureNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrDecoding, apiErr.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestSend_NetworkErrorNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrNetwork, apiErr.Kind)
}

func TestSend_RateGateSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(successBody("ok"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MinRequestInterval = 100 * time.Millisecond
	client := newTestClient(cfg)

	ctx := context.Background()
	messages := []Message{{Role: "user", Content: "Hi"}}

	start := time.Now()
	_, err := client.Send(ctx, messages, "", 0.7)
	require.NoError(t, err)
	_, err = client.Send(ctx, messages, "", 0.7)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestResetStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(successBody("ok"))
	}))
	defer server.Close()

	client := newTestClient(testConfig(server.URL))
	_, err := client.Send(context.Background(), []Message{{Role: "user", Content: "Hi"}}, "", 0.7)
	require.NoError(t, err)
	require.Equal(t, 1, client.RequestCount())

	client.ResetStatistics()

	assert.Equal(t, 0, client.RequestCount())
	assert.Equal(t, 0, client.TotalTokensUsed())
}

func TestAPIError_RecoverySuggestion(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrMissingAPIKey, "Please add your API key to the .env file"},
		{ErrInvalidAPIKey, "Please add your API key to the .env file"},
		{ErrRateLimitExceeded, "Wait a moment before sending another message"},
		{ErrNetwork, "Check your internet connection and try again"},
		{ErrServer, "Please try again later"},
	}

	for _, tt := range tests {
		apiErr := &APIError{Kind: tt.kind, RetryAfter: -1}
		assert.Equal(t, tt.expected, apiErr.RecoverySuggestion(), "kind %s", tt.kind)
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, -1, parseRetryAfter(""))
	assert.Equal(t, -1, parseRetryAfter("soon"))
	assert.Equal(t, -1, parseRetryAfter("-2"))
	assert.Equal(t, 0, parseRetryAfter("0"))
	assert.Equal(t, 30, parseRetryAfter("30"))
}
