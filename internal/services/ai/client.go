package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/recipescout/assistant/internal/config"
	"github.com/recipescout/assistant/internal/middleware"
)

const maxRetries = 3

// KeyProvider supplies the API key at request time.
type KeyProvider func() string

// Client is a rate-limited, retrying HTTP client for the completion
// endpoint. One client instance is meant to be shared: the rate gate
// and usage counters are process-wide state, so concurrent sessions
// going through the same instance share the minimum request interval.
type Client struct {
	cfg        *config.AIConfig
	key        KeyProvider
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
	metrics    *middleware.Metrics

	mu              sync.Mutex
	requestCount    int
	totalTokensUsed int
}

// NewClient creates a completion client.
func NewClient(cfg *config.AIConfig, key KeyProvider, logger *logrus.Logger, metrics *middleware.Metrics) *Client {
	return &Client{
		cfg:      cfg,
		key:      key,
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/messages",
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1),
		logger:  logger,
		metrics: metrics,
	}
}

// Send posts the message history to the completion endpoint and returns
// the decoded response. Failures are always classified as *APIError.
func (c *Client) Send(ctx context.Context, messages []Message, systemPrompt string, temperature float64) (*CompletionResponse, error) {
	apiKey := c.key()
	if apiKey == "" {
		return nil, &APIError{Kind: ErrMissingAPIKey, RetryAfter: -1}
	}

	// The gate applies to initial requests only; retry sleeps inside
	// performWithRetry are governed by the retry policy instead.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: ErrNetwork, RetryAfter: -1, Err: err}
	}

	reqBody := CompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Messages:    messages,
		System:      systemPrompt,
		Temperature: temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &APIError{Kind: ErrDecoding, RetryAfter: -1, Err: err}
	}

	start := time.Now()
	response, err := c.performWithRetry(ctx, apiKey, payload)
	if err != nil {
		status := "error"
		if apiErr, ok := err.(*APIError); ok {
			status = apiErr.Kind.String()
		}
		c.metrics.RecordCompletionRequest(status, time.Since(start))
		return nil, err
	}

	c.mu.Lock()
	c.requestCount++
	c.totalTokensUsed += response.Usage.TotalTokens()
	c.mu.Unlock()

	c.metrics.RecordCompletionRequest("success", time.Since(start))
	c.metrics.RecordTokens(response.Usage.InputTokens, response.Usage.OutputTokens)

	c.logger.WithFields(logrus.Fields{
		"model":         response.Model,
		"input_tokens":  response.Usage.InputTokens,
		"output_tokens": response.Usage.OutputTokens,
		"stop_reason":   response.StopReason,
	}).Debug("Completion request succeeded")

	return response, nil
}

func (c *Client) performWithRetry(ctx context.Context, apiKey string, payload []byte) (*CompletionResponse, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, &APIError{Kind: ErrNetwork, RetryAfter: -1, Err: err}
		}
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", c.cfg.APIVersion)
		req.Header.Set("content-type", "application/json")

		c.logger.WithFields(logrus.Fields{
			"model":   c.cfg.Model,
			"attempt": attempt,
		}).Debug("Sending completion request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &APIError{Kind: ErrNetwork, RetryAfter: -1, Err: err}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &APIError{Kind: ErrNetwork, RetryAfter: -1, Err: err}
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return decodeResponse(body)

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("retry-after"))
			// No default backoff when the server sends no hint.
			if attempt < maxRetries && retryAfter >= 0 {
				c.logger.WithFields(logrus.Fields{
					"attempt":     attempt,
					"retry_after": retryAfter,
				}).Warn("Rate limited by completion endpoint, retrying")
				c.metrics.RecordCompletionRetry("rate_limit")
				if err := sleepCtx(ctx, time.Duration(retryAfter)*time.Second); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &APIError{Kind: ErrRateLimitExceeded, StatusCode: resp.StatusCode, RetryAfter: retryAfter}

		case resp.StatusCode == http.StatusUnauthorized:
			return nil, &APIError{Kind: ErrInvalidAPIKey, StatusCode: resp.StatusCode, RetryAfter: -1}

		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, &APIError{
				Kind:       ErrHTTP,
				StatusCode: resp.StatusCode,
				Message:    decodeErrorMessage(body),
				RetryAfter: -1,
			}

		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			if attempt < maxRetries {
				backoff := time.Duration(1<<uint(attempt)) * time.Second
				c.logger.WithFields(logrus.Fields{
					"status":  resp.StatusCode,
					"attempt": attempt,
					"backoff": backoff,
				}).Warn("Completion endpoint returned server error, retrying")
				c.metrics.RecordCompletionRetry("server_error")
				if err := sleepCtx(ctx, backoff); err != nil {
					return nil, err
				}
				continue
			}
			message := decodeErrorMessage(body)
			if message == "" {
				message = "Unknown server error"
			}
			return nil, &APIError{Kind: ErrServer, StatusCode: resp.StatusCode, Message: message, RetryAfter: -1}

		default:
			return nil, &APIError{Kind: ErrHTTP, StatusCode: resp.StatusCode, RetryAfter: -1}
		}
	}
}

// RequestCount returns the number of successful requests issued.
func (c *Client) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount
}

// TotalTokensUsed returns the cumulative token usage across requests.
func (c *Client) TotalTokensUsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalTokensUsed
}

// ResetStatistics zeroes the usage counters.
func (c *Client) ResetStatistics() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.totalTokensUsed = 0
}

// IsConfigured reports whether an API key is available.
func (c *Client) IsConfigured() bool {
	return c.key() != ""
}

func decodeResponse(body []byte) (*CompletionResponse, error) {
	var response CompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &APIError{Kind: ErrDecoding, RetryAfter: -1, Err: err}
	}
	return &response, nil
}

// decodeErrorMessage extracts the message from the endpoint's error
// body schema, falling back to the raw body text.
func decodeErrorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return strings.TrimSpace(string(body))
	}
	return errResp.Error.Message
}

// parseRetryAfter returns the retry hint in seconds, -1 when absent or
// unparseable.
func parseRetryAfter(header string) int {
	if header == "" {
		return -1
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return -1
	}
	return seconds
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return &APIError{Kind: ErrNetwork, RetryAfter: -1, Err: ctx.Err()}
	case <-time.After(d):
		return nil
	}
}
