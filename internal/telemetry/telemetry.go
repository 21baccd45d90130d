// Package telemetry resolves the farm's location and current weather, falling
// back to cached values whenever a live lookup fails.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hasti-ptl/Krishisahayk/internal/crop"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

// Cache keys in the store's key/value area.
const (
	LocationCacheKey = "krishi_location_cache"
	WeatherCacheKey  = "krishi_weather_cache"
)

// DefaultCoordinate is the centroid of India, used when no position is known.
var DefaultCoordinate = farm.Coordinate{Lat: 20.5937, Lon: 78.9629}

// DefaultLocateTimeout bounds a live location lookup.
const DefaultLocateTimeout = 8 * time.Second

// Locator returns the device's current position.
type Locator interface {
	Locate(ctx context.Context) (farm.Coordinate, error)
}

// Forecaster fetches current conditions and a daily forecast for a
// coordinate. The returned reading carries no recommendations.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, at farm.Coordinate, days int) (*farm.WeatherReading, error)
}

// Options tunes a Resolver. Zero values select the defaults.
type Options struct {
	LocateTimeout time.Duration
	Default       *farm.Coordinate
	Clock         clockwork.Clock
	Logger        *slog.Logger
}

// Resolver implements the two-level cascade: live location, else cached
// location, else the default; live weather, else cached weather.
type Resolver struct {
	locator    Locator
	forecaster Forecaster
	cache      store.Store

	locateTimeout time.Duration
	fallback      farm.Coordinate
	clock         clockwork.Clock
	logger        *slog.Logger
}

// NewResolver builds a Resolver. A nil locator behaves like one that always
// fails.
func NewResolver(locator Locator, forecaster Forecaster, cache store.Store, opts Options) *Resolver {
	r := &Resolver{
		locator:       locator,
		forecaster:    forecaster,
		cache:         cache,
		locateTimeout: opts.LocateTimeout,
		fallback:      DefaultCoordinate,
		clock:         opts.Clock,
		logger:        opts.Logger,
	}
	if r.locateTimeout <= 0 {
		r.locateTimeout = DefaultLocateTimeout
	}
	if opts.Default != nil {
		r.fallback = *opts.Default
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "telemetry")
	return r
}

// Resolve returns a fresh reading when possible and the cached one
// otherwise. It fails with a TelemetryUnavailable Failure only when the
// fetch fails and nothing is cached.
func (r *Resolver) Resolve(ctx context.Context) (*farm.WeatherReading, error) {
	coord := r.location(ctx)

	reading, err := r.fetch(ctx, coord)
	if err == nil {
		if perr := store.PutJSON(ctx, r.cache, WeatherCacheKey, reading); perr != nil {
			r.logger.Warn("caching weather reading failed", "error", perr)
		}
		return reading, nil
	}

	r.logger.Warn("weather fetch failed, trying cache", "coordinate", coord.String(), "error", err)

	var cached farm.WeatherReading
	if cerr := store.GetJSON(ctx, r.cache, WeatherCacheKey, &cached); cerr != nil {
		if !errors.Is(cerr, store.ErrNotFound) {
			r.logger.Warn("weather cache unreadable", "error", cerr)
		}
		return nil, farm.NewFailure(farm.KindTelemetryUnavailable, err)
	}
	r.logger.Info("serving cached weather reading", "fetched_at", cached.FetchedAt)
	return &cached, nil
}

func (r *Resolver) location(ctx context.Context) farm.Coordinate {
	if r.locator != nil {
		lctx, cancel := context.WithTimeout(ctx, r.locateTimeout)
		coord, err := r.locator.Locate(lctx)
		cancel()
		if err == nil {
			if perr := store.PutJSON(ctx, r.cache, LocationCacheKey, coord); perr != nil {
				r.logger.Warn("caching location failed", "error", perr)
			}
			return coord
		}
		r.logger.Warn("live location unavailable", "error", err)
	}

	var cached farm.Coordinate
	err := store.GetJSON(ctx, r.cache, LocationCacheKey, &cached)
	if err == nil {
		r.logger.Debug("using cached location", "coordinate", cached.String())
		return cached
	}
	if !errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("location cache unreadable", "error", err)
	}
	r.logger.Info("using default location", "coordinate", r.fallback.String())
	return r.fallback
}

func (r *Resolver) fetch(ctx context.Context, coord farm.Coordinate) (*farm.WeatherReading, error) {
	if r.forecaster == nil {
		return nil, errors.New("no weather provider configured")
	}
	reading, err := r.forecaster.Forecast(ctx, coord, farm.ForecastDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.forecaster.Name(), err)
	}
	if err := reading.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", r.forecaster.Name(), err)
	}
	reading.Recommendations = crop.Score(reading.CurrentTempC, reading.HumidityPct, reading.PrecipMm)
	reading.FetchedAt = r.clock.Now()
	return reading, nil
}
