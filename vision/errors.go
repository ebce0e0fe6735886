package vision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrInvalidImage means the capture buffer is empty or not a known
	// raster format. Never retried; no network call is made.
	ErrInvalidImage = errors.New("invalid image data")

	// ErrRetryExhausted wraps the last transient failure once the retry
	// budget is spent, so the UI can say "try again later" instead of
	// "bad input".
	ErrRetryExhausted = errors.New("analysis retries exhausted")
)

// APIError is a chat-completions failure reported by the endpoint, either a
// non-2xx status or an error body on a 200.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api status %d", e.StatusCode)
}

// IsTransient classifies err for the retry policy: per-attempt timeouts,
// connection failures, HTTP 408, 429 and any 5xx are worth retrying.
// Remaining 4xx, malformed responses and caller cancellation are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusRequestTimeout ||
			apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
