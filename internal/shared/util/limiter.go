package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter. A limiter built with a non-positive rate
// allows every event.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	if b < 1 {
		b = 1
	}
	return &Limiter{inner: rate.NewLimiter(limit, b)}
}

// NewEventLimiter allows perSecond events per second with a burst of the
// same size.
func NewEventLimiter(perSecond int) *Limiter {
	return NewLimiter(float64(perSecond), perSecond)
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}

// SetRate changes the rate and burst in place.
func (l *Limiter) SetRate(r float64, b int) {
	if r <= 0 {
		l.inner.SetLimit(rate.Inf)
	} else {
		l.inner.SetLimit(rate.Limit(r))
	}
	if b < 1 {
		b = 1
	}
	l.inner.SetBurst(b)
}
