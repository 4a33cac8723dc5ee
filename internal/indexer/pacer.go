package indexer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces provider calls to respect per-account rate limits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one call per pause. A non-positive pause disables pacing.
func NewPacer(pause time.Duration) *Pacer {
	if pause <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(pause), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
