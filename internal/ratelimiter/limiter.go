package ratelimiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// ClientLimiters holds one token bucket limiter per clientId, created
// lazily on first use. Each limiter enforces a steady-state rate (tokens
// per second); burst is set equal to the rate so no extra burst capacity
// accumulates beyond the configured per-second maximum.
//
// This is a re-keying of the teacher's per-channel limiter: this hub has
// at most one subscriber per box, so the thing worth protecting from a
// noisy neighbour is the client issuing pushes, not a channel type.
type ClientLimiters struct {
	ratePerSec int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(ratePerSec int) *ClientLimiters {
	return &ClientLimiters{
		ratePerSec: ratePerSec,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the clientId's limiter grants a token. Returns a
// non-nil error only if ctx is cancelled while waiting.
func (cl *ClientLimiters) Wait(ctx context.Context, clientID string) error {
	return cl.limiterFor(clientID).Wait(ctx)
}

func (cl *ClientLimiters) limiterFor(clientID string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	l, ok := cl.limiters[clientID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(cl.ratePerSec), cl.ratePerSec)
		cl.limiters[clientID] = l
	}
	return l
}
