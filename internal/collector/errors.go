package collector

import (
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned when every attempt failed with a retryable
// error. Callers treat it as "no data this cycle".
var ErrRetriesExhausted = errors.New("max retries exceeded, unable to fetch data")

// HTTPError is a non-retryable upstream HTTP failure.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// APIError is a non-zero retCode in an otherwise successful response.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit retCode %d: %s", e.Code, e.Message)
}

// RateLimitedError marks an attempt rejected by upstream rate limiting.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %v", e.RetryAfter)
}

// IsRateLimited reports whether err is an upstream rate limit rejection.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// IsRetryable reports whether the fetcher may retry after err.
// HTTP errors other than 429 and API errors are final.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	var apiErr *APIError
	return !errors.As(err, &httpErr) && !errors.As(err, &apiErr)
}
