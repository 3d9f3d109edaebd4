package api

import (
	"errors"
	"fmt"
	"time"
)

// TransportError reports that every transport in the chain failed.
// It wraps the error from the last transport attempted.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("all %d transports failed: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError reports an upstream rate-limit response (HTTP 429).
// RetryAfter is the upstream hint, zero when none was given.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// statusError is a non-429 HTTP error from one transport.
type statusError struct {
	transport string
	code      int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: http %d", e.transport, e.code)
}
