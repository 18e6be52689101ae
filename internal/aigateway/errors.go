package aigateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrPaymentRequired     = errors.New("payment required")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrEmptyCompletion     = errors.New("empty completion")
)

// APIError is a non-2xx answer from the gateway. It unwraps to the sentinel
// matching its status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	default:
		return ErrUpstreamUnavailable
	}
}
