package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/fantasy-grid/internal/ingestion"
	"github.com/yourusername/fantasy-grid/internal/service"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

func newDeriveCmd() *cobra.Command {
	var lapsFile, output string
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive driver parameters from a lap history file",
		RunE: func(cmd *cobra.Command, args []string) error {
			drivers, err := deriveFromFile(lapsFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s %10s %12s %10s\n", "DRIVER", "BASE", "CONSISTENCY", "PIT LOSS")
			for _, d := range drivers {
				fmt.Fprintf(out, "%-16s %10.3f %12.3f %10.1f\n", d.Name, d.BaseLapTime, d.Consistency, d.PitStopLoss)
			}

			if output != "" {
				if err := ingestion.SaveDrivers(output, drivers); err != nil {
					return err
				}
				appLog.WithField("path", output).Info("Driver parameters written")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lapsFile, "laps-file", "", "Lap history (.json or .csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write driver parameters as JSON to this path")
	_ = cmd.MarkFlagRequired("laps-file")
	return cmd
}

func deriveFromFile(path string) ([]simulation.Driver, error) {
	samples, err := ingestion.LoadLapSamples(path)
	if err != nil {
		return nil, err
	}

	return ingestion.NewDeriver(service.ConfigFrom(cfg).Ingestion, appLog).Derive(samples)
}
