package tts

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between synthesis calls.
const DefaultInterval = 500 * time.Millisecond

// Gate spaces calls to a Synthesizer at a fixed minimum interval.
// The first call passes immediately; cache hits do not consume a slot.
type Gate struct {
	next    Synthesizer
	limiter *rate.Limiter
}

// NewGate wraps next so consecutive calls are at least interval apart.
// A zero or negative interval disables the gate.
func NewGate(next Synthesizer, interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Synthesize waits for a slot and forwards the request.
func (g *Gate) Synthesize(ctx context.Context, req Request) (*Clip, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, NewError(ErrorCodeCanceled, "rate limit wait cancelled", err)
	}
	return g.next.Synthesize(ctx, req)
}

// Info returns the wrapped engine's info.
func (g *Gate) Info() EngineInfo {
	return g.next.Info()
}
