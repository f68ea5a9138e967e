// Package service ties lap ingestion, Monte Carlo batches and prediction
// storage together.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/fantasy-grid/internal/ingestion"
	"github.com/yourusername/fantasy-grid/internal/logger"
	"github.com/yourusername/fantasy-grid/internal/metrics"
	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/montecarlo"
	"github.com/yourusername/fantasy-grid/internal/repository"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

const (
	probabilityPlaces = 4
	averagePlaces     = 2
)

// Config holds the batch defaults applied to requests that leave them unset
type Config struct {
	DefaultIterations int
	MaxIterations     int
	DefaultTotalLaps  int
	Workers           int
	BatchTimeout      time.Duration
	Ingestion         ingestion.Options
}

// PredictionRequest asks for a forecast of one event. Drivers are given
// inline or derived from LapsFile.
type PredictionRequest struct {
	Event           string              `json:"event" validate:"required"`
	Drivers         []simulation.Driver `json:"drivers,omitempty" validate:"omitempty,dive"`
	LapsFile        string              `json:"laps_file,omitempty"`
	TotalLaps       int                 `json:"total_laps" validate:"gte=0"`
	RainProbability float64             `json:"rain_probability" validate:"gte=0,lte=1"`
	Iterations      int                 `json:"iterations" validate:"gte=0"`
	Seed            int64               `json:"seed"`
}

// RaceRequest asks for a single seeded race
type RaceRequest struct {
	Drivers         []simulation.Driver `json:"drivers" validate:"required,min=1,dive"`
	TotalLaps       int                 `json:"total_laps" validate:"required,gte=1"`
	RainProbability float64             `json:"rain_probability" validate:"gte=0,lte=1"`
	Seed            int64               `json:"seed"`
}

// SingleRace is the outcome of one seeded race
type SingleRace struct {
	Seed      int64                       `json:"seed"`
	TotalLaps int                         `json:"total_laps"`
	Weather   simulation.WeatherCondition `json:"weather"`
	Results   []simulation.RaceResult     `json:"results"`
}

// PredictionService runs and stores Monte Carlo forecasts
type PredictionService struct {
	cfg       Config
	repo      repository.PredictionRepository
	deriver   *ingestion.Deriver
	logger    *logrus.Logger
	simLogger *logger.SimulationLogger
	audit     *logger.AuditLogger
	now       func() time.Time
}

// NewPredictionService creates a prediction service. repo may be nil, in
// which case predictions are computed but not stored.
func NewPredictionService(cfg Config, repo repository.PredictionRepository, log *logrus.Logger) *PredictionService {
	if log == nil {
		log = logrus.New()
	}
	if cfg.DefaultIterations <= 0 {
		cfg.DefaultIterations = 1000
	}
	if cfg.DefaultTotalLaps <= 0 {
		cfg.DefaultTotalLaps = 58
	}
	return &PredictionService{
		cfg:       cfg,
		repo:      repo,
		deriver:   ingestion.NewDeriver(cfg.Ingestion, log),
		logger:    log,
		simLogger: logger.NewSimulationLogger(log),
		audit:     logger.NewAuditLogger(log),
		now:       time.Now,
	}
}

// StorageEnabled reports whether predictions are persisted
func (s *PredictionService) StorageEnabled() bool {
	return s.repo != nil
}

// Predict resolves the field, runs a Monte Carlo batch and stores the result
func (s *PredictionService) Predict(ctx context.Context, req PredictionRequest, opts ...montecarlo.Option) (*models.Prediction, error) {
	if req.Event == "" {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidRequest)
	}
	if req.Iterations <= 0 {
		req.Iterations = s.cfg.DefaultIterations
	}
	if s.cfg.MaxIterations > 0 && req.Iterations > s.cfg.MaxIterations {
		return nil, fmt.Errorf("%w: iterations %d exceed the limit of %d", ErrInvalidRequest, req.Iterations, s.cfg.MaxIterations)
	}
	if req.TotalLaps <= 0 {
		req.TotalLaps = s.cfg.DefaultTotalLaps
	}

	drivers, err := s.resolveDrivers(req)
	if err != nil {
		s.recordFailure(req, err)
		return nil, err
	}

	s.simLogger.LogBatchStarted(req.Event, len(drivers), req.Iterations, req.TotalLaps, req.RainProbability, req.Seed)

	result, err := montecarlo.Run(ctx, drivers, montecarlo.Config{
		Iterations:      req.Iterations,
		Workers:         s.cfg.Workers,
		Seed:            req.Seed,
		TotalLaps:       req.TotalLaps,
		RainProbability: req.RainProbability,
		Timeout:         s.cfg.BatchTimeout,
	}, opts...)
	if err != nil {
		s.recordFailure(req, err)
		return nil, err
	}

	prediction, err := s.toPrediction(req.Event, result)
	if err != nil {
		return nil, err
	}
	s.recordSuccess(prediction, result)

	if s.repo != nil {
		if err := s.repo.Create(ctx, prediction); err != nil {
			metrics.RecordPersistFailure()
			s.logger.WithError(err).WithField("prediction_id", prediction.ID).Error("Failed to store prediction")
			return nil, fmt.Errorf("failed to store prediction: %w", err)
		}
		s.audit.LogPredictionStored(prediction.ID.String(), prediction.Event, prediction.Iterations, prediction.Seed)
	}

	return prediction, nil
}

// SimulateOnce runs a single race. A zero seed is replaced by a time-derived one.
func (s *PredictionService) SimulateOnce(req RaceRequest) (*SingleRace, error) {
	seed := req.Seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}

	outcome, err := simulation.SimulateRace(montecarlo.NewRand(seed), req.Drivers, req.TotalLaps, req.RainProbability)
	if err != nil {
		return nil, fmt.Errorf("invalid race input: %w", err)
	}

	winner := ""
	if w := outcome.Winner(); w != nil {
		winner = w.DriverName
	}
	s.simLogger.LogSingleRace(seed, req.TotalLaps, winner, outcome.Weather.String())

	return &SingleRace{
		Seed:      seed,
		TotalLaps: req.TotalLaps,
		Weather:   outcome.Weather,
		Results:   outcome.Results,
	}, nil
}

// GetPrediction loads a stored prediction
func (s *PredictionService) GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.GetByID(ctx, id)
}

// LatestForEvent loads the newest stored prediction of an event
func (s *PredictionService) LatestForEvent(ctx context.Context, event string) (*models.Prediction, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.GetLatestByEvent(ctx, event)
}

// HistoryForEvent lists an event's stored predictions, newest first
func (s *PredictionService) HistoryForEvent(ctx context.Context, event string, limit int) ([]*models.Prediction, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.ListByEvent(ctx, event, limit)
}

func (s *PredictionService) resolveDrivers(req PredictionRequest) ([]simulation.Driver, error) {
	switch {
	case len(req.Drivers) > 0 && req.LapsFile != "":
		return nil, fmt.Errorf("%w: give either drivers or laps_file, not both", ErrInvalidRequest)
	case len(req.Drivers) > 0:
		return req.Drivers, nil
	case req.LapsFile != "":
		samples, err := ingestion.LoadLapSamples(req.LapsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return s.deriver.Derive(samples)
	default:
		return nil, fmt.Errorf("%w: drivers or laps_file is required", ErrInvalidRequest)
	}
}

func (s *PredictionService) toPrediction(event string, result montecarlo.Result) (*models.Prediction, error) {
	forecasts := make([]models.DriverForecast, 0, len(result.Predictions))
	for _, p := range result.Predictions {
		forecasts = append(forecasts, models.DriverForecast{
			Driver:            p.Driver,
			WinProbability:    round(p.WinProbability, probabilityPlaces),
			PodiumProbability: round(p.PodiumProbability, probabilityPlaces),
			AvgPosition:       round(p.AvgPosition, averagePlaces),
			AvgFantasyPoints:  round(p.AvgFantasyPoints, averagePlaces),
			AvgPitStops:       round(p.AvgPitStops, averagePlaces),
		})
	}

	counts := make(map[string]int, len(result.WeatherCounts))
	for condition, n := range result.WeatherCounts {
		counts[condition.String()] = n
	}

	var trace json.RawMessage
	if result.Trace != nil {
		data, err := json.Marshal(result.Trace)
		if err != nil {
			return nil, fmt.Errorf("failed to encode race trace: %w", err)
		}
		trace = data
	}

	return &models.Prediction{
		ID:              uuid.New(),
		Event:           event,
		TotalLaps:       result.TotalLaps,
		RainProbability: result.RainProbability,
		Iterations:      result.Iterations,
		Seed:            result.Seed,
		Weather:         result.MostCommonWeather.String(),
		WeatherCounts:   counts,
		Forecasts:       forecasts,
		Trace:           trace,
		DurationMS:      result.Duration.Milliseconds(),
		CreatedAt:       s.now().UTC(),
	}, nil
}

func (s *PredictionService) recordSuccess(p *models.Prediction, result montecarlo.Result) {
	metrics.RecordBatch(metrics.StatusSuccess, result.Iterations, result.Duration)
	metrics.RecordWeather(p.WeatherCounts)
	for _, dp := range result.Predictions {
		metrics.RecordAveragePitStops(dp.AvgPitStops)
	}

	favourite, probability := "", 0.0
	if len(result.Predictions) > 0 {
		favourite = result.Predictions[0].Driver
		probability = result.Predictions[0].WinProbability
		metrics.UpdateFavourite(p.Event, probability)
	}
	s.simLogger.LogBatchCompleted(p.Event, result.Iterations, result.Duration, favourite, probability, p.Weather)
}

func (s *PredictionService) recordFailure(req PredictionRequest, err error) {
	status := metrics.StatusFailure
	switch {
	case IsInvalidInput(err):
		status = metrics.StatusInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = metrics.StatusCancelled
	}
	metrics.RecordFailedBatch(status)
	s.simLogger.LogBatchFailed(req.Event, req.Iterations, err)
}

func round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}
