package ai

import "fmt"

// ErrorKind classifies a completion request failure.
type ErrorKind int

const (
	ErrMissingAPIKey ErrorKind = iota
	ErrInvalidAPIKey
	ErrRateLimitExceeded
	ErrHTTP
	ErrServer
	ErrNetwork
	ErrDecoding
	ErrInvalidResponse
)

// String returns a short label for logging and metrics.
func (k ErrorKind) String() string {
	switch k {
	case ErrMissingAPIKey:
		return "missing_api_key"
	case ErrInvalidAPIKey:
		return "invalid_api_key"
	case ErrRateLimitExceeded:
		return "rate_limit_exceeded"
	case ErrHTTP:
		return "http_error"
	case ErrServer:
		return "server_error"
	case ErrNetwork:
		return "network_error"
	case ErrDecoding:
		return "decoding_error"
	default:
		return "invalid_response"
	}
}

// APIError is the fully classified failure of a completion request.
// The client never returns a raw transport or decoding error without
// wrapping it here.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	// RetryAfter is the server's retry hint in seconds, -1 when the
	// server sent none.
	RetryAfter int
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case ErrMissingAPIKey:
		return "API key not configured"
	case ErrInvalidAPIKey:
		return "invalid or missing API key"
	case ErrRateLimitExceeded:
		if e.RetryAfter >= 0 {
			return fmt.Sprintf("rate limit exceeded, retry after %d seconds", e.RetryAfter)
		}
		return "rate limit exceeded, please try again later"
	case ErrHTTP:
		if e.Message != "" {
			return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("HTTP error %d", e.StatusCode)
	case ErrServer:
		return fmt.Sprintf("server error: %s", e.Message)
	case ErrNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case ErrDecoding:
		return fmt.Sprintf("failed to decode response: %v", e.Err)
	default:
		return "invalid response from completion endpoint"
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RecoverySuggestion tells the user what to do about this failure.
func (e *APIError) RecoverySuggestion() string {
	switch e.Kind {
	case ErrMissingAPIKey, ErrInvalidAPIKey:
		return "Please add your API key to the .env file"
	case ErrRateLimitExceeded:
		return "Wait a moment before sending another message"
	case ErrNetwork:
		return "Check your internet connection and try again"
	default:
		return "Please try again later"
	}
}
