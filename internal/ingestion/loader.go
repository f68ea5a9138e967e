package ingestion

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

var csvColumns = []string{"driver", "lap_number", "lap_time", "pit_in", "pit_out"}

// LoadLapSamples reads lap samples from a local .json or .csv file
func LoadLapSamples(path string) ([]models.LapSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lap file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeLapSamplesJSON(f)
	case ".csv":
		return DecodeLapSamplesCSV(f)
	default:
		return nil, fmt.Errorf("unsupported lap file extension %q", filepath.Ext(path))
	}
}

// DecodeLapSamplesJSON decodes a JSON array of lap samples
func DecodeLapSamplesJSON(r io.Reader) ([]models.LapSample, error) {
	var samples []models.LapSample
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to decode lap samples: %w", err)
	}
	return samples, nil
}

// DecodeLapSamplesCSV decodes lap samples with a header row. The pit columns
// are optional.
func DecodeLapSamplesCSV(r io.Reader) ([]models.LapSample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range csvColumns[:3] {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", required)
		}
	}

	var samples []models.LapSample
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		sample, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseRecord(record []string, cols map[string]int) (models.LapSample, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	lapNumber, err := strconv.Atoi(field("lap_number"))
	if err != nil {
		return models.LapSample{}, fmt.Errorf("invalid lap_number: %w", err)
	}
	sample := models.LapSample{Driver: field("driver"), LapNumber: lapNumber}

	// Missing lap times (red flags, retirements) are kept as zero and dropped
	// during derivation.
	if raw := field("lap_time"); raw != "" {
		sample.LapTime, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.LapSample{}, fmt.Errorf("invalid lap_time: %w", err)
		}
	}
	if sample.PitIn, err = parseBool(field("pit_in")); err != nil {
		return models.LapSample{}, fmt.Errorf("invalid pit_in: %w", err)
	}
	if sample.PitOut, err = parseBool(field("pit_out")); err != nil {
		return models.LapSample{}, fmt.Errorf("invalid pit_out: %w", err)
	}
	return sample, nil
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// LoadDrivers reads driver parameters from a JSON array
func LoadDrivers(path string) ([]simulation.Driver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read drivers file: %w", err)
	}
	var drivers []simulation.Driver
	if err := json.Unmarshal(data, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode drivers: %w", err)
	}
	return drivers, nil
}

// SaveDrivers writes driver parameters as an indented JSON array
func SaveDrivers(path string, drivers []simulation.Driver) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(drivers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode drivers: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
