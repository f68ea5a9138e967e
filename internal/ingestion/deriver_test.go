package ingestion

import (
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func lap(driver string, n int, t float64) models.LapSample {
	return models.LapSample{Driver: driver, LapNumber: n, LapTime: t}
}

func TestDeriveMeanAndSampleStdDev(t *testing.T) {
	d := NewDeriver(DefaultOptions(), quietLogger())

	drivers, err := d.Derive([]models.LapSample{
		lap("HAM", 1, 90.0), lap("RUS", 1, 91.0),
		lap("HAM", 2, 91.0), lap("RUS", 2, 91.0),
		lap("HAM", 3, 92.0), lap("RUS", 3, 91.0),
	})
	require.NoError(t, err)
	require.Len(t, drivers, 2)

	assert.Equal(t, "HAM", drivers[0].Name)
	assert.InDelta(t, 91.0, drivers[0].BaseLapTime, 1e-9)
	assert.InDelta(t, 1.0, drivers[0].Consistency, 1e-9)
	assert.Equal(t, 24.0, drivers[0].PitStopLoss)

	// identical laps are floored to the minimum consistency
	assert.Equal(t, "RUS", drivers[1].Name)
	assert.InDelta(t, 0.1, drivers[1].Consistency, 1e-9)
}

func TestDeriveDropsPitSlowAndInvalidLaps(t *testing.T) {
	d := NewDeriver(DefaultOptions(), quietLogger())

	samples := []models.LapSample{
		lap("ALO", 1, 100.0),
		lap("ALO", 2, 101.0),
		{Driver: "ALO", LapNumber: 3, LapTime: 120.0, PitIn: true},
		{Driver: "ALO", LapNumber: 4, LapTime: 125.0, PitOut: true},
		lap("ALO", 5, 140.0), // safety car, outside 107%
		lap("ALO", 6, 0),
		lap("ALO", 7, math.NaN()),
		lap("ALO", 8, math.Inf(1)),
		lap("STR", 1, 102.0),
		lap("STR", 2, 102.0),
	}

	drivers, err := d.Derive(samples)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.InDelta(t, 100.5, drivers[0].BaseLapTime, 1e-9)
}

func TestDeriveSkipsDriversWithTooFewLaps(t *testing.T) {
	d := NewDeriver(DefaultOptions(), quietLogger())

	drivers, err := d.Derive([]models.LapSample{
		lap("A", 1, 90), lap("A", 2, 90.5),
		lap("B", 1, 91),
		lap("C", 1, 92), lap("C", 2, 92.2),
	})
	require.NoError(t, err)

	names := make([]string, 0, len(drivers))
	for _, dr := range drivers {
		names = append(names, dr.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestDeriveInsufficientData(t *testing.T) {
	d := NewDeriver(DefaultOptions(), quietLogger())

	_, err := d.Derive([]models.LapSample{lap("A", 1, 90), lap("A", 2, 90.5)})
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	_, err = d.Derive(nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestDeriveCustomOptions(t *testing.T) {
	d := NewDeriver(Options{PitStopLoss: 21.5, MinConsistency: 0.5, MinDrivers: 1}, quietLogger())

	drivers, err := d.Derive([]models.LapSample{lap("A", 1, 90), lap("A", 2, 90.2)})
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, 21.5, drivers[0].PitStopLoss)
	assert.InDelta(t, 0.5, drivers[0].Consistency, 1e-9)
}

func TestDerivedDriversAreSimulatable(t *testing.T) {
	samples, err := LoadLapSamples(filepath.Join("testdata", "laps.json"))
	require.NoError(t, err)

	drivers, err := NewDeriver(DefaultOptions(), quietLogger()).Derive(samples)
	require.NoError(t, err)
	assert.NoError(t, simulation.Validate(drivers, 10, 0.2))
}

func TestLoadLapSamplesJSON(t *testing.T) {
	samples, err := LoadLapSamples(filepath.Join("testdata", "laps.json"))
	require.NoError(t, err)
	require.Len(t, samples, 7)
	assert.Equal(t, "LEC", samples[0].Driver)
	assert.True(t, samples[3].PitIn)

	drivers, err := NewDeriver(DefaultOptions(), quietLogger()).Derive(samples)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.InDelta(t, 80.0, drivers[0].BaseLapTime, 1e-9)
	assert.InDelta(t, 0.4, drivers[0].Consistency, 1e-9)
	assert.InDelta(t, 81.333333, drivers[1].BaseLapTime, 1e-5)
}

func TestLoadLapSamplesCSV(t *testing.T) {
	samples, err := LoadLapSamples(filepath.Join("testdata", "laps.csv"))
	require.NoError(t, err)
	require.Len(t, samples, 8)
	assert.True(t, samples[5].PitIn)
	assert.True(t, samples[7].PitOut)
	assert.Zero(t, samples[6].LapTime)

	drivers, err := NewDeriver(DefaultOptions(), quietLogger()).Derive(samples)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "VER", drivers[0].Name)
	assert.InDelta(t, 91.0, drivers[0].BaseLapTime, 1e-9)
	assert.InDelta(t, 91.0, drivers[1].BaseLapTime, 1e-9)
}

func TestDecodeLapSamplesCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing column", "driver,lap_number\nA,1\n"},
		{"bad lap number", "driver,lap_number,lap_time\nA,x,90\n"},
		{"bad lap time", "driver,lap_number,lap_time\nA,1,fast\n"},
		{"bad pit flag", "driver,lap_number,lap_time,pit_in\nA,1,90,maybe\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLapSamplesCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadLapSamplesUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laps.txt")
	require.NoError(t, SaveDrivers(path, nil))

	_, err := LoadLapSamples(path)
	assert.Error(t, err)

	_, err = LoadLapSamples(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveAndLoadDrivers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "drivers.json")
	in := []simulation.Driver{
		{Name: "A", BaseLapTime: 90, Consistency: 0.3, PitStopLoss: 22},
		{Name: "B", BaseLapTime: 90.5, Consistency: 0.2, PitStopLoss: 22},
	}

	require.NoError(t, SaveDrivers(path, in))
	out, err := LoadDrivers(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
