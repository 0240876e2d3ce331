package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"tradingagents/pkg/errors"
)

// Limiter gates outbound requests to one model provider.
type Limiter interface {
	// Wait blocks until a request can proceed or the context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if a request can proceed without blocking.
	Allow() bool

	// Limit returns the configured rate (requests per minute).
	Limit() float64
}

// LocalLimiter wraps x/time/rate for single-process deployments.
type LocalLimiter struct {
	limiter *rate.Limiter
	name    string
	rpm     float64
}

// NewLocalLimiter creates an in-process limiter.
// requestsPerMinute: maximum number of requests allowed per minute.
func NewLocalLimiter(name string, requestsPerMinute int) *LocalLimiter {
	rps := float64(requestsPerMinute) / 60.0

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &LocalLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
		rpm:     float64(requestsPerMinute),
	}
}

// Wait blocks until the rate limiter allows the request.
func (l *LocalLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(errors.ErrRateLimitExceeded, "rate limiter %s: %v", l.name, err)
	}
	return nil
}

// Allow checks if a request is allowed without blocking.
func (l *LocalLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the configured requests per minute.
func (l *LocalLimiter) Limit() float64 {
	return l.rpm
}

// NoopLimiter admits every request. Used when limiting is disabled.
type NoopLimiter struct{}

func (NoopLimiter) Wait(ctx context.Context) error { return ctx.Err() }
func (NoopLimiter) Allow() bool                    { return true }
func (NoopLimiter) Limit() float64                 { return 0 }
