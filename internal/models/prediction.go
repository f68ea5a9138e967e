package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prediction is a persisted Monte Carlo forecast for one event
type Prediction struct {
	ID              uuid.UUID        `db:"id" json:"id" validate:"required"`
	Event           string           `db:"event" json:"event" validate:"required"`
	TotalLaps       int              `db:"total_laps" json:"total_laps" validate:"required,gt=0"`
	RainProbability float64          `db:"rain_probability" json:"rain_probability" validate:"gte=0,lte=1"`
	Iterations      int              `db:"iterations" json:"iterations" validate:"required,gt=0"`
	Seed            int64            `db:"seed" json:"seed"`
	Weather         string           `db:"weather" json:"weather" validate:"required,oneof=DRY MIXED WET"`
	WeatherCounts   map[string]int   `db:"weather_counts" json:"weather_counts"`
	Forecasts       []DriverForecast `db:"forecasts" json:"forecasts" validate:"required,min=1,dive"`
	Trace           json.RawMessage  `db:"trace" json:"race_trace,omitempty"`
	DurationMS      int64            `db:"duration_ms" json:"duration_ms"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// DriverForecast holds the rounded per-driver figures of a prediction
type DriverForecast struct {
	Driver            string          `json:"driver" validate:"required"`
	WinProbability    decimal.Decimal `json:"win_probability"`
	PodiumProbability decimal.Decimal `json:"podium_probability"`
	AvgPosition       decimal.Decimal `json:"avg_position"`
	AvgFantasyPoints  decimal.Decimal `json:"average_fantasy_points"`
	AvgPitStops       decimal.Decimal `json:"avg_pit_stops"`
}

// Favourite returns the forecast with the highest win probability
func (p *Prediction) Favourite() *DriverForecast {
	var best *DriverForecast
	for i := range p.Forecasts {
		if best == nil || p.Forecasts[i].WinProbability.GreaterThan(best.WinProbability) {
			best = &p.Forecasts[i]
		}
	}
	return best
}

// ForecastFor returns the forecast of the named driver
func (p *Prediction) ForecastFor(driver string) (*DriverForecast, bool) {
	for i := range p.Forecasts {
		if p.Forecasts[i].Driver == driver {
			return &p.Forecasts[i], true
		}
	}
	return nil, false
}

// ExpectedPoints returns the projected fantasy points of a driver, or zero
func (p *Prediction) ExpectedPoints(driver string) decimal.Decimal {
	if f, ok := p.ForecastFor(driver); ok {
		return f.AvgFantasyPoints
	}
	return decimal.Zero
}
