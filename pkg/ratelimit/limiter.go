package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a slot if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the limiter to its initial state
	Reset()
}

// Rate is a token bucket backed by golang.org/x/time/rate
type Rate struct {
	every time.Duration
	burst int

	mu sync.Mutex
	l  *rate.Limiter
}

// NewRate allows one request every interval with the given burst
func NewRate(every time.Duration, burst int) *Rate {
	if burst < 1 {
		burst = 1
	}
	return &Rate{every: every, burst: burst, l: rate.NewLimiter(rate.Every(every), burst)}
}

// PerMinute allows n requests per minute; n <= 0 disables limiting
func PerMinute(n, burst int) *Rate {
	if n <= 0 {
		return NewRate(0, burst)
	}
	return NewRate(time.Minute/time.Duration(n), burst)
}

func (r *Rate) limiter() *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.l
}

func (r *Rate) Allow() bool {
	return r.limiter().Allow()
}

func (r *Rate) Wait(ctx context.Context) error {
	return r.limiter().Wait(ctx)
}

func (r *Rate) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.l = rate.NewLimiter(rate.Every(r.every), r.burst)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
