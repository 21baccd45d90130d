// Package weatherapi is a telemetry.Forecaster for WeatherAPI.com.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.weatherapi.com/v1"

// defaultSeverity is reported for alerts the provider sends without one.
const defaultSeverity = "high"

// Provider calls forecast.json.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Provider. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("adapter", "weatherapi"),
	}
}

func (p *Provider) Name() string { return "WeatherAPI" }

type forecastResponse struct {
	Location struct {
		Name   string `json:"name"`
		Region string `json:"region"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Humidity  float64 `json:"humidity"`
		PrecipMm  float64 `json:"precip_mm"`
		Condition struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				AvgTempC          float64 `json:"avgtemp_c"`
				AvgHumidity       float64 `json:"avghumidity"`
				DailyChanceOfRain float64 `json:"daily_chance_of_rain"`
				Condition         struct {
					Text string `json:"text"`
					Icon string `json:"icon"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
	Alerts struct {
		Alert []struct {
			Headline string `json:"headline"`
			Severity string `json:"severity"`
		} `json:"alert"`
	} `json:"alerts"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Forecast fetches current conditions, days of daily forecast and alerts.
func (p *Provider) Forecast(ctx context.Context, at farm.Coordinate, days int) (*farm.WeatherReading, error) {
	if p.apiKey == "" {
		return nil, errors.New("no api key configured")
	}

	params := url.Values{}
	params.Add("key", p.apiKey)
	params.Add("q", at.String())
	params.Add("days", strconv.Itoa(days))
	params.Add("aqi", "no")
	params.Add("alerts", "yes")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/forecast.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (status %d, code %d): %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var out forecastResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	p.logger.Debug("forecast fetched", "coordinate", at.String(), "days", len(out.Forecast.ForecastDay), "bytes", len(body))

	return toReading(&out), nil
}

func toReading(r *forecastResponse) *farm.WeatherReading {
	name := r.Location.Name
	if r.Location.Region != "" && r.Location.Region != name {
		name += ", " + r.Location.Region
	}

	reading := &farm.WeatherReading{
		LocationName:     name,
		CurrentTempC:     r.Current.TempC,
		CurrentCondition: r.Current.Condition.Text,
		CurrentIcon:      iconURL(r.Current.Condition.Icon),
		HumidityPct:      r.Current.Humidity,
		PrecipMm:         r.Current.PrecipMm,
		Alerts:           make([]farm.Alert, 0, len(r.Alerts.Alert)),
		Forecast:         make([]farm.ForecastDay, 0, len(r.Forecast.ForecastDay)),
	}

	for i, a := range r.Alerts.Alert {
		severity := a.Severity
		if severity == "" {
			severity = defaultSeverity
		}
		reading.Alerts = append(reading.Alerts, farm.Alert{ID: i, Headline: a.Headline, Severity: severity})
	}

	for _, d := range r.Forecast.ForecastDay {
		reading.Forecast = append(reading.Forecast, farm.ForecastDay{
			Date:          d.Date,
			MeanTempC:     d.Day.AvgTempC,
			Condition:     d.Day.Condition.Text,
			Icon:          iconURL(d.Day.Condition.Icon),
			RainChancePct: percent(d.Day.DailyChanceOfRain),
			HumidityPct:   percent(d.Day.AvgHumidity),
		})
	}
	return reading
}

// iconURL turns the provider's protocol-relative icon paths into https URLs.
func iconURL(icon string) string {
	if len(icon) > 2 && icon[:2] == "//" {
		return "https:" + icon
	}
	return icon
}

func percent(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
