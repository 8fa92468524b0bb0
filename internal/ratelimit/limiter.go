// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary identity (user id, client IP).
package ratelimit

import (
	"context"
	"time"
)

// Config is a window: at most MaxRequests per Interval.
type Config struct {
	MaxRequests int
	Interval    time.Duration
}

// Result of one Check call. RetryAfter is measured on the limiter's clock.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter counts one request for id and reports whether it is within cfg.
type Limiter interface {
	Check(ctx context.Context, id string, cfg Config) (Result, error)
}

func result(count int, cfg Config, now, resetAt time.Time) Result {
	remaining := cfg.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= cfg.MaxRequests,
		Limit:      cfg.MaxRequests,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}
}
