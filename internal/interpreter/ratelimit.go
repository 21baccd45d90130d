package interpreter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps an Oracle with a token bucket so a chatty device cannot
// exhaust the provider quota.
type RateLimited struct {
	next    Oracle
	limiter *rate.Limiter
}

// NewRateLimited allows rps calls per second (fractional values allowed)
// with the given burst.
func NewRateLimited(next Oracle, rps float64, burst int) *RateLimited {
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Name() string { return r.next.Name() }

// Generate waits for a token, or for ctx to end, then forwards the call.
func (r *RateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.next.Generate(ctx, req)
}

func (r *RateLimited) Close() error { return r.next.Close() }

var _ Oracle = (*RateLimited)(nil)
