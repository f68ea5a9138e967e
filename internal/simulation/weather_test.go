package simulation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineWeatherBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		assert.Equal(t, WeatherDry, DetermineWeather(rng, 0))
		assert.Equal(t, WeatherDry, DetermineWeather(rng, -0.5))
		assert.Equal(t, WeatherWet, DetermineWeather(rng, 1))
		assert.Equal(t, WeatherWet, DetermineWeather(rng, 1.5))
	}
}

func TestDetermineWeatherBoundsDrawNothing(t *testing.T) {
	rng := &scriptedRand{}
	DetermineWeather(rng, 0)
	DetermineWeather(rng, 1)
	assert.Equal(t, 0, rng.calls)
}

func TestDetermineWeatherBands(t *testing.T) {
	tests := []struct {
		name     string
		prob     float64
		draws    []float64
		expected WeatherCondition
	}{
		{name: "no rain", prob: 0.5, draws: []float64{0.9}, expected: WeatherDry},
		{name: "draw equal to probability rains", prob: 0.5, draws: []float64{0.5, 0.1}, expected: WeatherWet},
		{name: "high probability is wet", prob: 0.8, draws: []float64{0.2}, expected: WeatherWet},
		{name: "medium band wet", prob: 0.5, draws: []float64{0.1, 0.59}, expected: WeatherWet},
		{name: "medium band mixed", prob: 0.5, draws: []float64{0.1, 0.6}, expected: WeatherMixed},
		{name: "upper edge of medium band", prob: 0.7, draws: []float64{0.1, 0.9}, expected: WeatherMixed},
		{name: "low band mixed", prob: 0.3, draws: []float64{0.1, 0.69}, expected: WeatherMixed},
		{name: "low band wet", prob: 0.2, draws: []float64{0.1, 0.7}, expected: WeatherWet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &scriptedRand{floats: append([]float64(nil), tt.draws...)}
			assert.Equal(t, tt.expected, DetermineWeather(rng, tt.prob))
		})
	}
}

func TestDetermineWeatherFrequency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const trials = 20000
	dry := 0
	for i := 0; i < trials; i++ {
		if DetermineWeather(rng, 0.4) == WeatherDry {
			dry++
		}
	}
	assert.InDelta(t, 0.6, float64(dry)/trials, 0.02)
}

func TestApplyWeatherImpactDryIsIdentity(t *testing.T) {
	rng := &scriptedRand{}
	for _, lap := range []float64{0, 1, 79.123, 95.5} {
		for _, skill := range []float64{0.5, 1, 2} {
			assert.Equal(t, lap, ApplyWeatherImpact(rng, lap, WeatherDry, skill))
		}
	}
	assert.Equal(t, 0, rng.calls)
}

func TestApplyWeatherImpactRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		wet := ApplyWeatherImpact(rng, 100, WeatherWet, 1)
		assert.GreaterOrEqual(t, wet, 115.0)
		assert.LessOrEqual(t, wet, 120.0)

		mixed := ApplyWeatherImpact(rng, 100, WeatherMixed, 1)
		assert.GreaterOrEqual(t, mixed, 105.0)
		assert.LessOrEqual(t, mixed, 110.0)
	}
}

func TestApplyWeatherImpactSkillAttenuates(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.5}}
	base := ApplyWeatherImpact(rng, 100, WeatherWet, 1)
	skilled := ApplyWeatherImpact(rng, 100, WeatherWet, 2)

	assert.InDelta(t, 117.5, base, 1e-9)
	assert.InDelta(t, 108.75, skilled, 1e-9)
}

func TestParseWeatherCondition(t *testing.T) {
	w, err := ParseWeatherCondition("mixed")
	require.NoError(t, err)
	assert.Equal(t, WeatherMixed, w)

	_, err = ParseWeatherCondition("snow")
	assert.Error(t, err)
}
