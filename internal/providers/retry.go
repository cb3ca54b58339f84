package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const retryAttempts = 3

var retryBaseDelay = 1500 * time.Millisecond

// HTTPError carries a vendor HTTP status so the retry loop can tell
// transient failures from terminal ones.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("http %d", e.Code)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code >= http.StatusInternalServerError || he.Code == http.StatusTooManyRequests
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// Per-attempt timeouts surface as context.DeadlineExceeded.
	return errors.Is(err, context.DeadlineExceeded)
}

// Retry runs fn up to three times with linear backoff, retrying only
// transient failures. The terminal error is wrapped in a
// GenerationError attributed to provider.
func Retry(ctx context.Context, provider, op string, fn func() error) error {
	var last error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		last = fn()
		if last == nil {
			return nil
		}
		if !isTransient(last) || attempt == retryAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * retryBaseDelay):
		case <-ctx.Done():
			return &GenerationError{Provider: provider, Message: op + " canceled", Err: ctx.Err()}
		}
	}
	return &GenerationError{Provider: provider, Message: op + " failed", Err: last}
}
