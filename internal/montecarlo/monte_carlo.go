// Package montecarlo repeats the race simulator and reduces the outcomes into
// finishing probabilities and averages.
package montecarlo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/fantasy-grid/internal/simulation"
)

const defaultIterations = 1000

// Config configures a Monte Carlo batch.
type Config struct {
	Iterations      int
	Workers         int
	Seed            int64
	TotalLaps       int
	RainProbability float64
	// Timeout bounds the whole batch. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// ProgressFunc receives the number of completed trials. It is called from
// worker goroutines and must be safe for concurrent use.
type ProgressFunc func(completed, total int)

// Option customises a run.
type Option func(*runOptions)

type runOptions struct {
	progress ProgressFunc
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *runOptions) {
		o.progress = fn
	}
}

// DriverPrediction summarises one driver across all trials.
type DriverPrediction struct {
	Driver            string             `json:"driver"`
	Wins              int                `json:"wins"`
	Podiums           int                `json:"podiums"`
	WinProbability    float64            `json:"win_probability"`
	PodiumProbability float64            `json:"podium_probability"`
	AvgPosition       float64            `json:"avg_position"`
	AvgFantasyPoints  float64            `json:"avg_fantasy_points"`
	AvgPitStops       float64            `json:"avg_pit_stops"`
	BestFinish        int                `json:"best_finish"`
	WorstFinish       int                `json:"worst_finish"`
	MeanTotalTime     float64            `json:"mean_total_time"`
	StdTotalTime      float64            `json:"std_total_time"`
	TotalTimeCI       map[string]float64 `json:"total_time_ci"`
}

// DriverTrace is the lap-by-lap record of one driver in the representative
// trial.
type DriverTrace struct {
	Driver          string             `json:"driver"`
	LapHistory      []float64          `json:"lap_history"`
	PositionHistory []int              `json:"position_history"`
	Strategy        []simulation.Stint `json:"strategy"`
}

// RaceTrace is a replay of the trial that best represents the batch.
type RaceTrace struct {
	Trial     int                         `json:"trial"`
	Seed      int64                       `json:"seed"`
	TotalLaps int                         `json:"total_laps"`
	Weather   simulation.WeatherCondition `json:"weather"`
	LapData   []DriverTrace               `json:"lap_data"`
}

// Result is the reduced outcome of a batch.
type Result struct {
	Iterations        int                                 `json:"iterations"`
	Seed              int64                               `json:"seed"`
	TotalLaps         int                                 `json:"total_laps"`
	RainProbability   float64                             `json:"rain_probability"`
	Predictions       []DriverPrediction                  `json:"predictions"`
	WeatherCounts     map[simulation.WeatherCondition]int `json:"weather_counts"`
	MostCommonWeather simulation.WeatherCondition         `json:"most_common_weather"`
	Trace             *RaceTrace                          `json:"race_trace,omitempty"`
	Duration          time.Duration                       `json:"-"`
	DurationMS        int64                               `json:"duration_ms"`
}

type finish struct {
	position  int
	points    int
	pitStops  int
	totalTime float64
}

type trialSummary struct {
	weather simulation.WeatherCondition
	winner  int
	// finishes is indexed like the input driver slice.
	finishes []finish
}

// Run executes cfg.Iterations independent races. Trial i draws from its own
// generator seeded with cfg.Seed+i, so the result does not depend on the
// number of workers. Cancellation is checked between trials.
func Run(ctx context.Context, drivers []simulation.Driver, cfg Config, opts ...Option) (Result, error) {
	if err := simulation.Validate(drivers, cfg.TotalLaps, cfg.RainProbability); err != nil {
		return Result{}, fmt.Errorf("invalid race input: %w", err)
	}

	options := runOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultIterations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Workers > cfg.Iterations {
		cfg.Workers = cfg.Iterations
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// Callers may mutate their slice while a long batch runs.
	field := append([]simulation.Driver(nil), drivers...)
	index := make(map[string]int, len(field))
	for i, d := range field {
		index[d.Name] = i
	}

	started := time.Now()
	summaries := make([]trialSummary, cfg.Iterations)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < cfg.Iterations; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for trial := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcome, err := simulation.SimulateRace(trialRand(cfg.Seed, trial), field, cfg.TotalLaps, cfg.RainProbability)
				if err != nil {
					return fmt.Errorf("trial %d: %w", trial, err)
				}
				summaries[trial] = summarize(outcome, index)

				done := int(completed.Add(1))
				if options.progress != nil {
					options.progress(done, cfg.Iterations)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("monte carlo stopped after %d of %d trials: %w", completed.Load(), cfg.Iterations, err)
	}

	result := reduce(field, summaries, cfg)

	trace, err := replayTrace(field, summaries, result.Predictions, cfg)
	if err != nil {
		return Result{}, err
	}
	result.Trace = trace
	result.Duration = time.Since(started)
	result.DurationMS = result.Duration.Milliseconds()

	return result, nil
}

// NewRand returns the generator used for a race seeded with seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func trialRand(seed int64, trial int) *rand.Rand {
	return NewRand(seed + int64(trial))
}

func summarize(outcome simulation.Outcome, index map[string]int) trialSummary {
	summary := trialSummary{
		weather:  outcome.Weather,
		finishes: make([]finish, len(outcome.Results)),
	}
	for _, r := range outcome.Results {
		i := index[r.DriverName]
		summary.finishes[i] = finish{
			position:  r.Position,
			points:    r.FantasyPoints,
			pitStops:  r.PitStops,
			totalTime: r.TotalTime,
		}
		if r.Position == 1 {
			summary.winner = i
		}
	}
	return summary
}

func reduce(drivers []simulation.Driver, summaries []trialSummary, cfg Config) Result {
	n := float64(len(summaries))

	type accumulator struct {
		wins, podiums int
		positionSum   float64
		pointsSum     float64
		pitStopSum    float64
		best, worst   int
		totalTimes    []float64
	}
	acc := make([]accumulator, len(drivers))
	for i := range acc {
		acc[i] = accumulator{best: len(drivers) + 1, totalTimes: make([]float64, 0, len(summaries))}
	}

	weatherCounts := make(map[simulation.WeatherCondition]int, 3)
	for _, s := range summaries {
		weatherCounts[s.weather]++
		for i, f := range s.finishes {
			a := &acc[i]
			if f.position == 1 {
				a.wins++
			}
			if f.position <= 3 {
				a.podiums++
			}
			a.positionSum += float64(f.position)
			a.pointsSum += float64(f.points)
			a.pitStopSum += float64(f.pitStops)
			if f.position < a.best {
				a.best = f.position
			}
			if f.position > a.worst {
				a.worst = f.position
			}
			a.totalTimes = append(a.totalTimes, f.totalTime)
		}
	}

	predictions := make([]DriverPrediction, len(drivers))
	for i, d := range drivers {
		a := acc[i]
		mean, std := meanStd(a.totalTimes)
		predictions[i] = DriverPrediction{
			Driver:            d.Name,
			Wins:              a.wins,
			Podiums:           a.podiums,
			WinProbability:    float64(a.wins) / n,
			PodiumProbability: float64(a.podiums) / n,
			AvgPosition:       a.positionSum / n,
			AvgFantasyPoints:  a.pointsSum / n,
			AvgPitStops:       a.pitStopSum / n,
			BestFinish:        a.best,
			WorstFinish:       a.worst,
			MeanTotalTime:     mean,
			StdTotalTime:      std,
			TotalTimeCI:       CalculateConfidenceIntervals(a.totalTimes, intervalLevels),
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].WinProbability != predictions[j].WinProbability {
			return predictions[i].WinProbability > predictions[j].WinProbability
		}
		return predictions[i].AvgPosition < predictions[j].AvgPosition
	})

	return Result{
		Iterations:        len(summaries),
		Seed:              cfg.Seed,
		TotalLaps:         cfg.TotalLaps,
		RainProbability:   cfg.RainProbability,
		Predictions:       predictions,
		WeatherCounts:     weatherCounts,
		MostCommonWeather: mostCommonWeather(weatherCounts),
	}
}

// mostCommonWeather breaks ties toward the drier condition.
func mostCommonWeather(counts map[simulation.WeatherCondition]int) simulation.WeatherCondition {
	best := simulation.WeatherDry
	bestCount := -1
	for _, w := range simulation.WeatherConditions() {
		if counts[w] > bestCount {
			best = w
			bestCount = counts[w]
		}
	}
	return best
}

// replayTrace re-runs the earliest trial won by the favourite. Replaying
// from the trial seed avoids holding lap histories for every trial.
func replayTrace(drivers []simulation.Driver, summaries []trialSummary, predictions []DriverPrediction, cfg Config) (*RaceTrace, error) {
	if len(predictions) == 0 {
		return nil, nil
	}
	favourite := -1
	for i, d := range drivers {
		if d.Name == predictions[0].Driver {
			favourite = i
			break
		}
	}

	for trial, s := range summaries {
		if s.winner != favourite {
			continue
		}
		outcome, err := simulation.SimulateRace(trialRand(cfg.Seed, trial), drivers, cfg.TotalLaps, cfg.RainProbability)
		if err != nil {
			return nil, fmt.Errorf("replay trial %d: %w", trial, err)
		}
		trace := &RaceTrace{
			Trial:     trial,
			Seed:      cfg.Seed + int64(trial),
			TotalLaps: cfg.TotalLaps,
			Weather:   outcome.Weather,
			LapData:   make([]DriverTrace, len(outcome.Results)),
		}
		for i, r := range outcome.Results {
			trace.LapData[i] = DriverTrace{
				Driver:          r.DriverName,
				LapHistory:      r.LapTimeHistory,
				PositionHistory: r.PositionHistory,
				Strategy:        r.Strategy,
			}
		}
		return trace, nil
	}
	return nil, nil
}
