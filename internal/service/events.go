package service

import (
	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/ingestion"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

// RequestFromEvent builds a prediction request from a configured event
func RequestFromEvent(e config.EventConfig) PredictionRequest {
	req := PredictionRequest{
		Event:           e.Name,
		LapsFile:        e.LapsFile,
		TotalLaps:       e.TotalLaps,
		RainProbability: e.RainProbability,
		Iterations:      e.Iterations,
	}
	for _, d := range e.Drivers {
		req.Drivers = append(req.Drivers, simulation.Driver{
			Name:        d.Name,
			BaseLapTime: d.BaseLapTime,
			Consistency: d.Consistency,
			PitStopLoss: d.PitStopLoss,
		})
	}
	return req
}

// ConfigFrom maps application configuration onto service defaults
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		DefaultIterations: cfg.Simulation.DefaultIterations,
		MaxIterations:     cfg.Server.MaxIterations,
		DefaultTotalLaps:  cfg.Simulation.DefaultTotalLaps,
		Workers:           cfg.Simulation.Workers,
		BatchTimeout:      cfg.BatchTimeout(),
		Ingestion: ingestion.Options{
			PitStopLoss:    cfg.Ingestion.PitStopLoss,
			MinConsistency: cfg.Ingestion.MinConsistency,
			QuickLapFactor: cfg.Ingestion.QuickLapFactor,
			MinLaps:        cfg.Ingestion.MinLaps,
			MinDrivers:     cfg.Ingestion.MinDrivers,
		},
	}
}
