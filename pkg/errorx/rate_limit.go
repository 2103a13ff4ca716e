package errorx

import (
	"fmt"
	"time"
)

// RateLimitError is returned when a sliding-window limit is hit. The router
// maps it to TooManyRequests and the handler layer uses RetryAfter to set the
// Retry-After header.
type RateLimitError struct {
	Dimension  string
	Limit      int
	RetryAfter time.Duration
	ResetAt    time.Time
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("Too many requests, retry after %d seconds", int(e.RetryAfter.Seconds()))
}

func NewRateLimit(dimension string, limit int, retryAfter time.Duration, resetAt time.Time) RateLimitError {
	return RateLimitError{
		Dimension:  dimension,
		Limit:      limit,
		RetryAfter: retryAfter,
		ResetAt:    resetAt,
	}
}
