// Package crop scores which crops suit the current weather.
package crop

import (
	"strings"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
)

// minRainMm is the precipitation above which a crop's rain need counts as met.
const minRainMm = 0.1

// Profile is the growing envelope of one crop.
type Profile struct {
	Name        string
	MinTempC    float64
	MaxTempC    float64
	MinHumidity float64
	NeedsRain   bool
}

// Profiles is the reference table, in declaration order.
var Profiles = []Profile{
	{Name: "Rice", MinTempC: 20, MaxTempC: 38, MinHumidity: 60, NeedsRain: true},
	{Name: "Wheat", MinTempC: 10, MaxTempC: 25, MinHumidity: 40},
	{Name: "Maize", MinTempC: 18, MaxTempC: 27, MinHumidity: 50, NeedsRain: true},
	{Name: "Sugarcane", MinTempC: 21, MaxTempC: 35, MinHumidity: 60, NeedsRain: true},
	{Name: "Cotton", MinTempC: 21, MaxTempC: 30, MinHumidity: 40},
	{Name: "Pulses", MinTempC: 18, MaxTempC: 30, MinHumidity: 30},
}

// Score rates every profile against the given conditions. The result holds
// one entry per profile: all High, then Medium, then Low, each group in
// table order.
func Score(tempC, humidityPct, precipMm float64) []farm.CropRecommendation {
	var high, medium, low []farm.CropRecommendation
	for _, p := range Profiles {
		rec := p.Evaluate(tempC, humidityPct, precipMm)
		switch rec.Suitability {
		case farm.SuitabilityHigh:
			high = append(high, rec)
		case farm.SuitabilityMedium:
			medium = append(medium, rec)
		default:
			low = append(low, rec)
		}
	}

	out := make([]farm.CropRecommendation, 0, len(Profiles))
	out = append(out, high...)
	out = append(out, medium...)
	return append(out, low...)
}

// Evaluate rates a single profile.
func (p Profile) Evaluate(tempC, humidityPct, precipMm float64) farm.CropRecommendation {
	tempOK := tempC >= p.MinTempC && tempC <= p.MaxTempC
	humidityOK := humidityPct >= p.MinHumidity
	rainOK := !p.NeedsRain || precipMm > minRainMm

	var reasons []string
	switch {
	case tempC < p.MinTempC:
		reasons = append(reasons, "Temperature too low")
	case tempC > p.MaxTempC:
		reasons = append(reasons, "Temperature too high")
	}
	if !humidityOK {
		reasons = append(reasons, "Humidity too low")
	}
	if !rainOK {
		reasons = append(reasons, "Needs rain")
	}

	suitability := farm.SuitabilityLow
	switch {
	case tempOK && humidityOK && rainOK:
		suitability = farm.SuitabilityHigh
	case tempOK || (humidityOK && rainOK):
		suitability = farm.SuitabilityMedium
	}

	reason := "Ideal conditions"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}

	return farm.CropRecommendation{Crop: p.Name, Suitability: suitability, Reason: reason}
}
