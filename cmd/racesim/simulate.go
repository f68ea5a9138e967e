package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/fantasy-grid/internal/ingestion"
	"github.com/yourusername/fantasy-grid/internal/montecarlo"
	"github.com/yourusername/fantasy-grid/internal/service"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

type simulateOptions struct {
	event       string
	driversFile string
	lapsFile    string
	totalLaps   int
	rain        float64
	rainSet     bool
	iterations  int
	workers     int
	seed        int64
	single      bool
	output      string
}

func newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a Monte Carlo batch (or one race) and print a report",
		Example: `  racesim simulate --drivers drivers.json --laps 58 --rain 0.2 --iterations 5000
  racesim simulate --event monza --single --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.event, "event", "", "Configured event to take drivers and race settings from")
	f.StringVar(&opts.driversFile, "drivers", "", "JSON file with driver parameters")
	f.StringVar(&opts.lapsFile, "laps-file", "", "Lap history (.json or .csv) to derive drivers from")
	f.IntVar(&opts.totalLaps, "laps", 0, "Race distance in laps (default from config)")
	f.Float64Var(&opts.rain, "rain", 0, "Rain probability in [0, 1]")
	f.IntVar(&opts.iterations, "iterations", 0, "Number of simulated races (default from config)")
	f.IntVar(&opts.workers, "workers", 0, "Worker goroutines (default from config, then CPU count)")
	f.Int64Var(&opts.seed, "seed", 0, "Base seed; 0 picks one from the clock")
	f.BoolVar(&opts.single, "single", false, "Simulate one race and print its classification")
	f.StringVarP(&opts.output, "output", "o", "", "Write the full result as JSON to this path")
	return cmd
}

func runSimulate(cmd *cobra.Command, opts *simulateOptions) error {
	opts.rainSet = cmd.Flags().Changed("rain")
	drivers, totalLaps, rain, err := resolveField(opts)
	if err != nil {
		return err
	}

	if opts.single {
		svc := service.NewPredictionService(service.ConfigFrom(cfg), nil, appLog)
		race, err := svc.SimulateOnce(service.RaceRequest{
			Drivers: drivers, TotalLaps: totalLaps, RainProbability: rain, Seed: opts.seed,
		})
		if err != nil {
			return err
		}
		printRace(cmd, race)
		return writeJSONFile(opts.output, race)
	}

	iterations := opts.iterations
	if iterations <= 0 {
		iterations = cfg.Simulation.DefaultIterations
	}
	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Simulation.Workers
	}
	seed := opts.seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}

	result, err := montecarlo.Run(cmd.Context(), drivers, montecarlo.Config{
		Iterations:      iterations,
		Workers:         workers,
		Seed:            seed,
		TotalLaps:       totalLaps,
		RainProbability: rain,
		Timeout:         cfg.BatchTimeout(),
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), montecarlo.GenerateConsoleReport(result))
	if opts.output != "" {
		if err := montecarlo.ExportJSON(result, opts.output); err != nil {
			return err
		}
		appLog.WithField("path", opts.output).Info("Result exported")
	}
	return nil
}

func resolveField(opts *simulateOptions) ([]simulation.Driver, int, float64, error) {
	totalLaps, rain := opts.totalLaps, opts.rain
	var drivers []simulation.Driver

	switch {
	case opts.driversFile != "":
		d, err := ingestion.LoadDrivers(opts.driversFile)
		if err != nil {
			return nil, 0, 0, err
		}
		drivers = d
	case opts.lapsFile != "":
		d, err := deriveFromFile(opts.lapsFile)
		if err != nil {
			return nil, 0, 0, err
		}
		drivers = d
	case opts.event != "":
		e, ok := cfg.Event(opts.event)
		if !ok {
			return nil, 0, 0, fmt.Errorf("event %q is not configured", opts.event)
		}
		req := service.RequestFromEvent(e)
		drivers = req.Drivers
		if req.LapsFile != "" {
			d, err := deriveFromFile(req.LapsFile)
			if err != nil {
				return nil, 0, 0, err
			}
			drivers = d
		}
		if totalLaps <= 0 {
			totalLaps = e.TotalLaps
		}
		if !opts.rainSet {
			rain = e.RainProbability
		}
	default:
		return nil, 0, 0, fmt.Errorf("one of --drivers, --laps-file or --event is required")
	}

	if totalLaps <= 0 {
		totalLaps = cfg.Simulation.DefaultTotalLaps
	}
	return drivers, totalLaps, rain, nil
}

func printRace(cmd *cobra.Command, race *service.SingleRace) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seed %d, %d laps, weather %s\n\n", race.Seed, race.TotalLaps, race.Weather)
	fmt.Fprintf(out, "%-4s %-16s %12s %5s %12s %4s  %s\n", "POS", "DRIVER", "TIME", "PITS", "FASTEST", "PTS", "STRATEGY")
	for _, r := range race.Results {
		strategy := ""
		for i, st := range r.Strategy {
			if i > 0 {
				strategy += " > "
			}
			strategy += fmt.Sprintf("%s(%d)", st.Compound, st.Laps())
		}
		fmt.Fprintf(out, "%-4d %-16s %12.3f %5d %12.3f %4d  %s\n",
			r.Position, r.DriverName, r.TotalTime, r.PitStops, r.FastestLap, r.FantasyPoints, strategy)
	}
}

func writeJSONFile(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
