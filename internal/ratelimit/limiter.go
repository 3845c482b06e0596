package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is a conservative requests-per-second budget for the
	// market-data provider; the documented limits are higher but bursty
	// scrapers get throttled well before them.
	DefaultRate = 2.0
	// DefaultBurst allows a short run of back-to-back requests.
	DefaultBurst = 1
)

// Limiter throttles outbound provider requests with a token bucket. It is
// constructed once and injected into the provider client rather than hiding
// behind a package global, so tests can run unthrottled.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing rps requests per second with the given
// burst. Non-positive arguments fall back to the defaults.
func New(rps float64, burst int) *Limiter {
	if rps <= 0 {
		rps = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Unlimited creates a Limiter that never blocks, for tests.
func Unlimited() *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until the limiter permits an event or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
