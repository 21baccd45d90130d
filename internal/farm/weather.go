// Package farm defines the core data types flowing through the assistant:
// weather readings and crop advice, parsed voice intents, and the ledger
// records created when a farmer confirms an intent.
package farm

import (
	"fmt"
	"time"
)

// ForecastDays is the number of days every WeatherReading carries.
const ForecastDays = 5

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String formats the coordinate as "lat,lon", the query form weather providers accept.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Suitability is the qualitative advisability tier of a crop.
type Suitability string

const (
	SuitabilityHigh   Suitability = "High"
	SuitabilityMedium Suitability = "Medium"
	SuitabilityLow    Suitability = "Low"
)

// CropRecommendation is derived from a reading and never persisted on its own.
type CropRecommendation struct {
	Crop        string      `json:"crop"`
	Suitability Suitability `json:"suitability"`
	Reason      string      `json:"reason"`
}

// Alert is a weather warning issued by the provider. ID is its position in
// the provider's alert list and is regenerated on every fetch.
type Alert struct {
	ID       int    `json:"id"`
	Headline string `json:"headline"`
	Severity string `json:"severity"`
}

// ForecastDay is the daily summary for one forecast day.
type ForecastDay struct {
	// Date is the ISO calendar day (YYYY-MM-DD).
	Date          string  `json:"date"`
	MeanTempC     float64 `json:"mean_temp_c"`
	Condition     string  `json:"condition"`
	Icon          string  `json:"icon"`
	RainChancePct int     `json:"rain_chance_pct"`
	HumidityPct   int     `json:"humidity_pct"`
}

// WeatherReading is the canonical shape of current conditions, the five-day
// forecast and the crop advice computed from the current conditions.
type WeatherReading struct {
	LocationName     string               `json:"location_name"`
	CurrentTempC     float64              `json:"current_temp_c"`
	CurrentCondition string               `json:"current_condition"`
	CurrentIcon      string               `json:"current_icon"`
	HumidityPct      float64              `json:"humidity_pct"`
	PrecipMm         float64              `json:"precip_mm"`
	Alerts           []Alert              `json:"alerts"`
	Forecast         []ForecastDay        `json:"forecast"`
	Recommendations  []CropRecommendation `json:"recommendations"`
	FetchedAt        time.Time            `json:"fetched_at"`
}

// Validate checks the forecast invariant: exactly ForecastDays days in
// strictly increasing date order.
func (r *WeatherReading) Validate() error {
	if len(r.Forecast) != ForecastDays {
		return fmt.Errorf("forecast has %d days, want %d", len(r.Forecast), ForecastDays)
	}
	for i := 1; i < len(r.Forecast); i++ {
		if r.Forecast[i].Date <= r.Forecast[i-1].Date {
			return fmt.Errorf("forecast day %d (%s) is not after %s", i, r.Forecast[i].Date, r.Forecast[i-1].Date)
		}
	}
	return nil
}
