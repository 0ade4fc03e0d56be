package resty

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// rateLimiter throttles outgoing requests to the control plane client-side,
// independent of whatever limit the remote instance itself enforces,
// using a token-bucket limiter. A nil
// *rateLimiter (the zero value for an unconfigured Client) allows every
// request through.
type rateLimiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

func newRateLimiter(requestsPerSecond float64, burst int) *rateLimiter {
	if requestsPerSecond <= 0 || burst <= 0 {
		return nil
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiter.Wait(ctx)
}
