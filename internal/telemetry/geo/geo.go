// Package geo provides telemetry.Locator implementations.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
)

// Static always reports the same configured position.
type Static struct {
	Coord farm.Coordinate
}

func (s Static) Locate(context.Context) (farm.Coordinate, error) {
	return s.Coord, nil
}

// DefaultIPEndpoint answers with the caller's approximate position.
const DefaultIPEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPLocator estimates the position from the public IP address. It accepts
// the ip-api.com shape ({"lat","lon"}) and the ipapi.co shape
// ({"latitude","longitude"}).
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewIPLocator returns a locator querying endpoint, or DefaultIPEndpoint
// when endpoint is empty. The caller bounds the lookup through ctx.
func NewIPLocator(endpoint string, logger *slog.Logger) *IPLocator {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IPLocator{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     logger.With("adapter", "ip-geolocation"),
	}
}

type ipResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (l *IPLocator) Locate(ctx context.Context) (farm.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return farm.Coordinate{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return farm.Coordinate{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return farm.Coordinate{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return farm.Coordinate{}, fmt.Errorf("geolocation error (status %d)", resp.StatusCode)
	}

	var out ipResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return farm.Coordinate{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Status != "" && out.Status != "success" {
		return farm.Coordinate{}, fmt.Errorf("geolocation %s: %s", out.Status, out.Message)
	}

	lat, lon := out.Lat, out.Lon
	if lat == nil || lon == nil {
		lat, lon = out.Latitude, out.Longitude
	}
	if lat == nil || lon == nil {
		return farm.Coordinate{}, fmt.Errorf("geolocation response has no coordinates")
	}
	coord := farm.Coordinate{Lat: *lat, Lon: *lon}
	if coord.Lat < -90 || coord.Lat > 90 || coord.Lon < -180 || coord.Lon > 180 {
		return farm.Coordinate{}, fmt.Errorf("geolocation returned out-of-range coordinate %s", coord)
	}
	l.logger.Debug("located", "coordinate", coord.String())
	return coord, nil
}
