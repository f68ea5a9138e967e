package simulation

import (
	"fmt"
	"strings"
)

// WeatherCondition is the race-long weather state.
type WeatherCondition string

// Weather conditions
const (
	WeatherDry   WeatherCondition = "DRY"
	WeatherMixed WeatherCondition = "MIXED"
	WeatherWet   WeatherCondition = "WET"
)

type multiplierBand struct {
	low, high float64
}

var weatherBands = map[WeatherCondition]multiplierBand{
	WeatherMixed: {low: 1.05, high: 1.10},
	WeatherWet:   {low: 1.15, high: 1.20},
}

// WeatherConditions returns every condition.
func WeatherConditions() []WeatherCondition {
	return []WeatherCondition{WeatherDry, WeatherMixed, WeatherWet}
}

// IsValid reports whether w is a known condition.
func (w WeatherCondition) IsValid() bool {
	switch w {
	case WeatherDry, WeatherMixed, WeatherWet:
		return true
	default:
		return false
	}
}

func (w WeatherCondition) String() string {
	return string(w)
}

// MarshalText implements encoding.TextMarshaler.
func (w WeatherCondition) MarshalText() ([]byte, error) {
	if !w.IsValid() {
		return nil, fmt.Errorf("unknown weather condition %q", string(w))
	}
	return []byte(w), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *WeatherCondition) UnmarshalText(text []byte) error {
	parsed, err := ParseWeatherCondition(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWeatherCondition parses a condition name, case-insensitively.
func ParseWeatherCondition(s string) (WeatherCondition, error) {
	w := WeatherCondition(strings.ToUpper(strings.TrimSpace(s)))
	if !w.IsValid() {
		return "", fmt.Errorf("unknown weather condition %q", s)
	}
	return w, nil
}

// DetermineWeather picks the weather for a whole race. Certain outcomes at
// the probability bounds consume no random draws.
func DetermineWeather(rng Rand, rainProbability float64) WeatherCondition {
	if rainProbability <= 0 {
		return WeatherDry
	}
	if rainProbability >= 1 {
		return WeatherWet
	}

	if rng.Float64() > rainProbability {
		return WeatherDry
	}

	switch {
	case rainProbability > 0.7:
		return WeatherWet
	case rainProbability > 0.3:
		if rng.Float64() < 0.6 {
			return WeatherWet
		}
		return WeatherMixed
	default:
		if rng.Float64() < 0.7 {
			return WeatherMixed
		}
		return WeatherWet
	}
}

// ApplyWeatherImpact scales a lap time for the race weather. driverSkill
// above 1 attenuates the penalty toward no effect; values <= 0 are treated
// as 1. Dry weather returns lapTime untouched and draws nothing.
func ApplyWeatherImpact(rng Rand, lapTime float64, condition WeatherCondition, driverSkill float64) float64 {
	band, ok := weatherBands[condition]
	if !ok {
		return lapTime
	}
	if driverSkill <= 0 {
		driverSkill = 1
	}

	factor := band.low + rng.Float64()*(band.high-band.low)
	adjusted := 1 + (factor-1)/driverSkill
	return lapTime * adjusted
}
