package telemetry

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
)

// RateLimitedForecaster wraps a Forecaster with a token bucket.
type RateLimitedForecaster struct {
	next    Forecaster
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedForecaster allows rps requests per second (fractional values
// allowed) with the given burst.
func NewRateLimitedForecaster(next Forecaster, rps float64, burst int) *RateLimitedForecaster {
	return &RateLimitedForecaster{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [rate limited]", next.Name()),
	}
}

func (r *RateLimitedForecaster) Name() string { return r.name }

// Forecast waits for a token, or for ctx to end, then forwards the call.
func (r *RateLimitedForecaster) Forecast(ctx context.Context, at farm.Coordinate, days int) (*farm.WeatherReading, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.next.Forecast(ctx, at, days)
}

var _ Forecaster = (*RateLimitedForecaster)(nil)
