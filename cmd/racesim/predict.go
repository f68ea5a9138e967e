package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/service"
)

func newPredictCmd() *cobra.Command {
	var (
		event      string
		all        bool
		iterations int
		seed       int64
		output     string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast configured events and store the predictions",
		Long:  `Runs a Monte Carlo batch for one or all configured events. Predictions are stored when the database is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if event == "" && !all {
				return fmt.Errorf("either --event or --all is required")
			}

			events := cfg.Events
			if !all {
				e, ok := cfg.Event(event)
				if !ok {
					return fmt.Errorf("event %q is not configured", event)
				}
				events = []config.EventConfig{e}
			}

			svc, _, cleanup, err := newPredictionService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var predictions []*models.Prediction
			for _, e := range events {
				req := service.RequestFromEvent(e)
				if iterations > 0 {
					req.Iterations = iterations
				}
				if seed != 0 {
					req.Seed = seed
				}

				p, err := svc.Predict(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("prediction for %s failed: %w", e.Name, err)
				}
				printPrediction(cmd, p)
				predictions = append(predictions, p)
			}

			return writeJSONFile(output, predictions)
		},
	}

	f := cmd.Flags()
	f.StringVar(&event, "event", "", "Configured event to forecast")
	f.BoolVar(&all, "all", false, "Forecast every configured event")
	f.IntVar(&iterations, "iterations", 0, "Override the event iteration count")
	f.Int64Var(&seed, "seed", 0, "Override the base seed")
	f.StringVarP(&output, "output", "o", "", "Write the predictions as JSON to this path")
	return cmd
}

func printPrediction(cmd *cobra.Command, p *models.Prediction) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d races, %d laps, rain %.0f%%, most common weather %s\n",
		p.Event, p.Iterations, p.TotalLaps, p.RainProbability*100, p.Weather)
	fmt.Fprintf(out, "  %-16s %8s %8s %8s %8s %6s\n", "DRIVER", "WIN", "PODIUM", "AVG POS", "AVG PTS", "PITS")
	for _, f := range p.Forecasts {
		fmt.Fprintf(out, "  %-16s %7s%% %7s%% %8s %8s %6s\n",
			f.Driver,
			f.WinProbability.Shift(2).StringFixed(1),
			f.PodiumProbability.Shift(2).StringFixed(1),
			f.AvgPosition.StringFixed(2),
			f.AvgFantasyPoints.StringFixed(2),
			f.AvgPitStops.StringFixed(2))
	}
	if cfg.Database.Enabled {
		fmt.Fprintf(out, "  stored as %s\n", p.ID)
	}
	fmt.Fprintln(out)
}
