package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

var now = time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)

type fakeLocator struct {
	coord farm.Coordinate
	err   error
	block bool
}

func (f *fakeLocator) Locate(ctx context.Context) (farm.Coordinate, error) {
	if f.block {
		<-ctx.Done()
		return farm.Coordinate{}, ctx.Err()
	}
	return f.coord, f.err
}

type fakeForecaster struct {
	mu      sync.Mutex
	calls   []farm.Coordinate
	reading *farm.WeatherReading
	err     error
}

func (f *fakeForecaster) Name() string { return "fake" }

func (f *fakeForecaster) Forecast(_ context.Context, at farm.Coordinate, days int) (*farm.WeatherReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, at)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.reading
	r.Forecast = append([]farm.ForecastDay(nil), f.reading.Forecast[:min(days, len(f.reading.Forecast))]...)
	return &r, nil
}

func (f *fakeForecaster) lastCall(t *testing.T) farm.Coordinate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func fiveDays() []farm.ForecastDay {
	return []farm.ForecastDay{
		{Date: "2026-10-16", MeanTempC: 25},
		{Date: "2026-10-17", MeanTempC: 26},
		{Date: "2026-10-18", MeanTempC: 24},
		{Date: "2026-10-19", MeanTempC: 23},
		{Date: "2026-10-20", MeanTempC: 25},
	}
}

func liveReading() *farm.WeatherReading {
	return &farm.WeatherReading{
		LocationName: "Pune, Maharashtra",
		CurrentTempC: 25,
		HumidityPct:  65,
		PrecipMm:     5,
		Forecast:     fiveDays(),
	}
}

func newResolver(loc Locator, fc Forecaster, cache store.Store) *Resolver {
	return NewResolver(loc, fc, cache, Options{
		LocateTimeout: 20 * time.Millisecond,
		Clock:         clockwork.NewFakeClockAt(now),
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestResolve_LiveLocationAndWeather(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := store.NewMemory()
	here := farm.Coordinate{Lat: 18.52, Lon: 73.85}
	fc := &fakeForecaster{reading: liveReading()}

	got, err := newResolver(&fakeLocator{coord: here}, fc, cache).Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, here, fc.lastCall(t))
	assert.Equal(t, "Pune, Maharashtra", got.LocationName)
	assert.Len(t, got.Forecast, farm.ForecastDays)
	require.Len(t, got.Recommendations, 6)
	assert.Equal(t, "Rice", got.Recommendations[0].Crop)
	assert.Equal(t, now, got.FetchedAt)

	var loc farm.Coordinate
	require.NoError(t, store.GetJSON(ctx, cache, LocationCacheKey, &loc))
	assert.Equal(t, here, loc)

	var cached farm.WeatherReading
	require.NoError(t, store.GetJSON(ctx, cache, WeatherCacheKey, &cached))
	assert.Equal(t, got.Recommendations, cached.Recommendations)
}

func TestResolve_LocateTimeoutUsesCachedCoordinate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := store.NewMemory()
	saved := farm.Coordinate{Lat: 19.99, Lon: 73.78}
	require.NoError(t, store.PutJSON(ctx, cache, LocationCacheKey, saved))
	fc := &fakeForecaster{reading: liveReading()}

	_, err := newResolver(&fakeLocator{block: true}, fc, cache).Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, saved, fc.lastCall(t))
	assert.NotEqual(t, DefaultCoordinate, fc.lastCall(t))
}

func TestResolve_NoLocationAnywhereUsesDefault(t *testing.T) {
	t.Parallel()
	fc := &fakeForecaster{reading: liveReading()}

	_, err := newResolver(&fakeLocator{err: errors.New("permission denied")}, fc, store.NewMemory()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCoordinate, fc.lastCall(t))
}

func TestResolve_NilLocatorFallsThrough(t *testing.T) {
	t.Parallel()
	fc := &fakeForecaster{reading: liveReading()}

	_, err := newResolver(nil, fc, store.NewMemory()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCoordinate, fc.lastCall(t))
}

func TestResolve_FetchFailureReturnsCachedReadingVerbatim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := store.NewMemory()

	// Recommendations that crop.Score would never produce for these conditions.
	stale := farm.WeatherReading{
		LocationName:    "Nashik",
		CurrentTempC:    5,
		HumidityPct:     10,
		Forecast:        fiveDays(),
		Recommendations: []farm.CropRecommendation{{Crop: "Rice", Suitability: farm.SuitabilityHigh, Reason: "Ideal conditions"}},
		FetchedAt:       now.Add(-48 * time.Hour),
	}
	require.NoError(t, store.PutJSON(ctx, cache, WeatherCacheKey, stale))

	fc := &fakeForecaster{err: errors.New("network unreachable")}
	got, err := newResolver(nil, fc, cache).Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, stale.Recommendations, got.Recommendations)
	assert.Equal(t, "Nashik", got.LocationName)
	assert.True(t, stale.FetchedAt.Equal(got.FetchedAt))
}

func TestResolve_NothingCachedIsTelemetryUnavailable(t *testing.T) {
	t.Parallel()
	fc := &fakeForecaster{err: errors.New("503 from provider")}

	got, err := newResolver(nil, fc, store.NewMemory()).Resolve(context.Background())
	assert.Nil(t, got)
	require.ErrorIs(t, err, farm.ErrTelemetryUnavailable)
	assert.Contains(t, err.Error(), "503 from provider")
}

func TestResolve_ShortForecastCountsAsFailure(t *testing.T) {
	t.Parallel()
	short := liveReading()
	short.Forecast = short.Forecast[:3]
	fc := &fakeForecaster{reading: short}

	_, err := newResolver(nil, fc, store.NewMemory()).Resolve(context.Background())
	assert.ErrorIs(t, err, farm.ErrTelemetryUnavailable)
}

func TestResolve_CorruptCachesAreTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := store.NewMemory()
	require.NoError(t, cache.Put(ctx, LocationCacheKey, []byte("{broken")))
	require.NoError(t, cache.Put(ctx, WeatherCacheKey, []byte("{broken")))

	fc := &fakeForecaster{err: errors.New("offline")}
	_, err := newResolver(nil, fc, cache).Resolve(ctx)

	assert.Equal(t, DefaultCoordinate, fc.lastCall(t))
	assert.ErrorIs(t, err, farm.ErrTelemetryUnavailable)
}

func TestRateLimitedForecaster(t *testing.T) {
	t.Parallel()
	fc := &fakeForecaster{reading: liveReading()}
	rl := NewRateLimitedForecaster(fc, 0.001, 1)

	assert.Equal(t, "fake [rate limited]", rl.Name())
	_, err := rl.Forecast(context.Background(), DefaultCoordinate, 5)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rl.Forecast(ctx, DefaultCoordinate, 5)
	assert.Error(t, err, "second call exceeds the bucket")
}
