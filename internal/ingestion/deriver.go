// Package ingestion turns historical lap samples into simulator driver
// parameters.
package ingestion

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

// Options tunes how driver parameters are derived
type Options struct {
	PitStopLoss    float64
	MinConsistency float64
	// QuickLapFactor keeps laps within this multiple of the driver's fastest.
	QuickLapFactor float64
	MinLaps        int
	MinDrivers     int
}

// DefaultOptions returns the standard derivation settings
func DefaultOptions() Options {
	return Options{
		PitStopLoss:    24.0,
		MinConsistency: 0.1,
		QuickLapFactor: 1.07,
		MinLaps:        2,
		MinDrivers:     2,
	}
}

// Deriver computes driver parameters from lap samples
type Deriver struct {
	opts   Options
	logger *logrus.Logger
}

// NewDeriver creates a deriver, filling zero options from the defaults
func NewDeriver(opts Options, logger *logrus.Logger) *Deriver {
	def := DefaultOptions()
	if opts.PitStopLoss <= 0 {
		opts.PitStopLoss = def.PitStopLoss
	}
	if opts.MinConsistency <= 0 {
		opts.MinConsistency = def.MinConsistency
	}
	if opts.QuickLapFactor <= 1 {
		opts.QuickLapFactor = def.QuickLapFactor
	}
	if opts.MinLaps < 2 {
		opts.MinLaps = def.MinLaps
	}
	if opts.MinDrivers < 1 {
		opts.MinDrivers = def.MinDrivers
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Deriver{opts: opts, logger: logger}
}

// Derive groups laps per driver, drops pit and slow laps, and returns one
// parameter set per usable driver in order of first appearance.
func (d *Deriver) Derive(samples []models.LapSample) ([]simulation.Driver, error) {
	order := make([]string, 0)
	byDriver := make(map[string][]float64)

	for _, s := range samples {
		if s.Driver == "" {
			continue
		}
		if _, seen := byDriver[s.Driver]; !seen {
			order = append(order, s.Driver)
			byDriver[s.Driver] = nil
		}
		if s.IsPitLap() || !(s.LapTime > 0) || math.IsInf(s.LapTime, 0) {
			continue
		}
		byDriver[s.Driver] = append(byDriver[s.Driver], s.LapTime)
	}

	drivers := make([]simulation.Driver, 0, len(order))
	for _, name := range order {
		laps := quickLaps(byDriver[name], d.opts.QuickLapFactor)
		if len(laps) < d.opts.MinLaps {
			d.logger.WithFields(logrus.Fields{
				"driver":     name,
				"valid_laps": len(laps),
				"min_laps":   d.opts.MinLaps,
			}).Warn("Skipping driver with too few valid laps")
			continue
		}

		mean, std := sampleMeanStd(laps)
		if std < d.opts.MinConsistency {
			std = d.opts.MinConsistency
		}

		drivers = append(drivers, simulation.Driver{
			Name:        name,
			BaseLapTime: mean,
			Consistency: std,
			PitStopLoss: d.opts.PitStopLoss,
		})
	}

	if len(drivers) < d.opts.MinDrivers {
		return nil, fmt.Errorf("%w: %d driver(s) with valid laps, need %d", models.ErrInsufficientData, len(drivers), d.opts.MinDrivers)
	}

	d.logger.WithFields(logrus.Fields{
		"drivers": len(drivers),
		"samples": len(samples),
	}).Debug("Derived driver parameters")

	return drivers, nil
}

func quickLaps(laps []float64, factor float64) []float64 {
	if len(laps) == 0 {
		return nil
	}
	fastest := laps[0]
	for _, l := range laps[1:] {
		if l < fastest {
			fastest = l
		}
	}
	limit := fastest * factor
	kept := make([]float64, 0, len(laps))
	for _, l := range laps {
		if l <= limit {
			kept = append(kept, l)
		}
	}
	return kept
}

// sampleMeanStd returns the mean and the n-1 standard deviation.
func sampleMeanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range values {
		diff := v - mean
		ss += diff * diff
	}
	return mean, math.Sqrt(ss / (n - 1))
}
