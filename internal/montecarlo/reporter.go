package montecarlo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateConsoleReport formats a batch result for terminal output.
func GenerateConsoleReport(result Result) string {
	var builder strings.Builder
	builder.WriteString("Race Prediction Report\n")
	builder.WriteString("======================\n")
	builder.WriteString(fmt.Sprintf("Iterations: %d (seed %d)\n", result.Iterations, result.Seed))
	builder.WriteString(fmt.Sprintf("Laps: %d  Rain probability: %.0f%%\n", result.TotalLaps, result.RainProbability*100))
	builder.WriteString(fmt.Sprintf("Most common weather: %s\n", result.MostCommonWeather))
	builder.WriteString(fmt.Sprintf("Duration: %s\n\n", result.Duration.Round(time.Millisecond)))

	builder.WriteString(fmt.Sprintf("%-4s %-20s %8s %8s %8s %8s %6s\n", "#", "Driver", "Win%", "Podium%", "AvgPos", "AvgPts", "Stops"))
	for i, p := range result.Predictions {
		builder.WriteString(fmt.Sprintf("%-4d %-20s %8.2f %8.2f %8.2f %8.2f %6.2f\n",
			i+1,
			p.Driver,
			p.WinProbability*100,
			p.PodiumProbability*100,
			p.AvgPosition,
			p.AvgFantasyPoints,
			p.AvgPitStops,
		))
	}

	if result.Trace != nil {
		builder.WriteString(fmt.Sprintf("\nRepresentative trial #%d (%s)\n", result.Trace.Trial, result.Trace.Weather))
		for _, lap := range result.Trace.LapData {
			stints := make([]string, 0, len(lap.Strategy))
			for _, s := range lap.Strategy {
				stints = append(stints, fmt.Sprintf("%s(%d)", s.Compound, s.Laps()))
			}
			builder.WriteString(fmt.Sprintf("  %-20s %s\n", lap.Driver, strings.Join(stints, " -> ")))
		}
	}
	return builder.String()
}

// ExportJSON writes the result to outputPath, creating parent directories.
func ExportJSON(result Result, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}
