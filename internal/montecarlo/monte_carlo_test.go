package montecarlo

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fantasy-grid/internal/simulation"
)

func field() []simulation.Driver {
	return []simulation.Driver{
		{Name: "Verstappen", BaseLapTime: 80.0, Consistency: 0.3, PitStopLoss: 20},
		{Name: "Norris", BaseLapTime: 80.2, Consistency: 0.4, PitStopLoss: 20},
		{Name: "Leclerc", BaseLapTime: 80.3, Consistency: 0.5, PitStopLoss: 21},
		{Name: "Sargeant", BaseLapTime: 82.0, Consistency: 1.2, PitStopLoss: 22},
	}
}

func TestRunMonteCarloDeterministic(t *testing.T) {
	cfg := Config{Iterations: 300, Seed: 42, TotalLaps: 30, RainProbability: 0.3}

	single, err := Run(context.Background(), field(), Config{Iterations: cfg.Iterations, Seed: cfg.Seed, TotalLaps: cfg.TotalLaps, RainProbability: cfg.RainProbability, Workers: 1})
	require.NoError(t, err)
	parallel, err := Run(context.Background(), field(), Config{Iterations: cfg.Iterations, Seed: cfg.Seed, TotalLaps: cfg.TotalLaps, RainProbability: cfg.RainProbability, Workers: 8})
	require.NoError(t, err)

	single.Duration, parallel.Duration = 0, 0
	single.DurationMS, parallel.DurationMS = 0, 0
	assert.Equal(t, single, parallel)
}

func TestRunMonteCarloAggregates(t *testing.T) {
	result, err := Run(context.Background(), field(), Config{Iterations: 500, Seed: 7, TotalLaps: 20, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, 500, result.Iterations)
	assert.Equal(t, int64(7), result.Seed)
	require.Len(t, result.Predictions, 4)

	winSum, podiumSum, positionSum := 0.0, 0.0, 0.0
	wins := 0
	for _, p := range result.Predictions {
		winSum += p.WinProbability
		podiumSum += p.PodiumProbability
		positionSum += p.AvgPosition
		wins += p.Wins
		assert.GreaterOrEqual(t, p.AvgPosition, 1.0)
		assert.LessOrEqual(t, p.AvgPosition, 4.0)
		assert.LessOrEqual(t, p.BestFinish, p.WorstFinish)
		assert.Contains(t, p.TotalTimeCI, "95%")
	}
	assert.Equal(t, 500, wins)
	assert.InDelta(t, 1.0, winSum, 1e-9)
	assert.InDelta(t, 3.0, podiumSum, 1e-9)
	assert.InDelta(t, 10.0, positionSum, 1e-9)

	for i := 1; i < len(result.Predictions); i++ {
		assert.GreaterOrEqual(t, result.Predictions[i-1].WinProbability, result.Predictions[i].WinProbability)
	}
	assert.Equal(t, "Sargeant", result.Predictions[3].Driver)

	assert.Equal(t, 500, result.WeatherCounts[simulation.WeatherDry])
	assert.Equal(t, simulation.WeatherDry, result.MostCommonWeather)
}

func TestRunMonteCarloTrace(t *testing.T) {
	result, err := Run(context.Background(), field(), Config{Iterations: 200, Seed: 3, TotalLaps: 15})
	require.NoError(t, err)
	require.NotNil(t, result.Trace)

	trace := result.Trace
	assert.Equal(t, 15, trace.TotalLaps)
	assert.Equal(t, int64(3)+int64(trace.Trial), trace.Seed)
	require.Len(t, trace.LapData, 4)
	assert.Equal(t, result.Predictions[0].Driver, trace.LapData[0].Driver)
	for _, lap := range trace.LapData {
		assert.Len(t, lap.LapHistory, 15)
		assert.Len(t, lap.PositionHistory, 15)
	}
}

func TestRunMonteCarloWetRace(t *testing.T) {
	result, err := Run(context.Background(), field(), Config{Iterations: 50, Seed: 1, TotalLaps: 10, RainProbability: 1})
	require.NoError(t, err)
	assert.Equal(t, 50, result.WeatherCounts[simulation.WeatherWet])
	assert.Equal(t, simulation.WeatherWet, result.MostCommonWeather)
}

func TestRunMonteCarloFantasyPointsAverage(t *testing.T) {
	drivers := []simulation.Driver{
		{Name: "fast", BaseLapTime: 70, Consistency: 0, PitStopLoss: 20},
		{Name: "slow", BaseLapTime: 90, Consistency: 0, PitStopLoss: 20},
	}
	result, err := Run(context.Background(), drivers, Config{Iterations: 20, Seed: 9, TotalLaps: 5})
	require.NoError(t, err)

	assert.Equal(t, "fast", result.Predictions[0].Driver)
	assert.Equal(t, 1.0, result.Predictions[0].WinProbability)
	assert.Equal(t, 25.0, result.Predictions[0].AvgFantasyPoints)
	assert.Equal(t, 18.0, result.Predictions[1].AvgFantasyPoints)
	assert.Equal(t, 2.0, result.Predictions[1].AvgPosition)
}

func TestRunMonteCarloProgress(t *testing.T) {
	var calls, last atomic.Int64
	_, err := Run(context.Background(), field(), Config{Iterations: 64, Seed: 5, TotalLaps: 5, Workers: 4},
		WithProgress(func(completed, total int) {
			calls.Add(1)
			assert.Equal(t, 64, total)
			if int64(completed) > last.Load() {
				last.Store(int64(completed))
			}
		}))
	require.NoError(t, err)
	assert.Equal(t, int64(64), calls.Load())
	assert.Equal(t, int64(64), last.Load())
}

func TestRunMonteCarloCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, field(), Config{Iterations: 10000, Seed: 1, TotalLaps: 58})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunMonteCarloTimeout(t *testing.T) {
	_, err := Run(context.Background(), field(), Config{Iterations: 1_000_000, Seed: 1, TotalLaps: 70, Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRunMonteCarloInvalidInput(t *testing.T) {
	_, err := Run(context.Background(), nil, Config{Iterations: 10, TotalLaps: 10})
	assert.True(t, errors.Is(err, simulation.ErrNoDrivers))

	_, err = Run(context.Background(), field(), Config{Iterations: 10, TotalLaps: 0})
	assert.True(t, errors.Is(err, simulation.ErrInvalidLapCount))
}

func TestRunMonteCarloDefaults(t *testing.T) {
	result, err := Run(context.Background(), field()[:2], Config{TotalLaps: 3})
	require.NoError(t, err)
	assert.Equal(t, defaultIterations, result.Iterations)
	assert.NotZero(t, result.Seed)
}

func TestCalculateConfidenceIntervals(t *testing.T) {
	distribution := make([]float64, 101)
	for i := range distribution {
		distribution[i] = float64(100 - i)
	}
	ci := CalculateConfidenceIntervals(distribution, []float64{0.9})
	assert.InDelta(t, 90.0, ci["90%"], 2.0)
}

func TestGenerateConsoleReport(t *testing.T) {
	result, err := Run(context.Background(), field(), Config{Iterations: 20, Seed: 2, TotalLaps: 10})
	require.NoError(t, err)

	report := GenerateConsoleReport(result)
	assert.Contains(t, report, "Race Prediction Report")
	assert.Contains(t, report, "Verstappen")
	assert.Contains(t, report, "Representative trial")
}

func TestExportJSON(t *testing.T) {
	result, err := Run(context.Background(), field(), Config{Iterations: 10, Seed: 2, TotalLaps: 5})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "prediction.json")
	require.NoError(t, ExportJSON(result, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"most_common_weather": "DRY"`)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "duration_ms")
	assert.NotContains(t, decoded, "duration")
	assert.Equal(t, float64(result.Duration.Milliseconds()), decoded["duration_ms"])

	assert.Error(t, ExportJSON(result, ""))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestQuantileInterpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	assert.Equal(t, 10.0, quantile(sorted, 0))
	assert.Equal(t, 40.0, quantile(sorted, 1))
	assert.InDelta(t, 25.0, quantile(sorted, 0.5), 1e-9)
	assert.Zero(t, quantile(nil, 0.5))
}
