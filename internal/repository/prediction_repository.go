package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/fantasy-grid/internal/database"
	"github.com/yourusername/fantasy-grid/internal/models"
)

const (
	selectPrediction = `
		SELECT id, event, total_laps, rain_probability, iterations, seed, weather,
		       weather_counts, forecasts, trace, duration_ms, created_at
		FROM predictions`
	errScanPrediction = "failed to scan prediction: %w"
	uniqueViolation   = "23505"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Create inserts a new prediction
func (r *PostgresPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	query := `
		INSERT INTO predictions (id, event, total_laps, rain_probability, iterations, seed, weather,
		                         weather_counts, forecasts, trace, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	counts, err := json.Marshal(p.WeatherCounts)
	if err != nil {
		return fmt.Errorf("failed to encode weather counts: %w", err)
	}
	forecasts, err := json.Marshal(p.Forecasts)
	if err != nil {
		return fmt.Errorf("failed to encode forecasts: %w", err)
	}
	var trace []byte
	if len(p.Trace) > 0 {
		trace = p.Trace
	}

	_, err = r.db.Pool().Exec(ctx, query,
		p.ID, p.Event, p.TotalLaps, p.RainProbability, p.Iterations, p.Seed, p.Weather,
		counts, forecasts, trace, p.DurationMS, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: prediction %s", models.ErrDuplicateKey, p.ID)
		}
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	return nil
}

// GetByID retrieves a prediction by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	row := r.db.Pool().QueryRow(ctx, selectPrediction+` WHERE id = $1`, id)

	p, err := scanPrediction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPredictionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

// GetLatestByEvent retrieves the most recent prediction for an event
func (r *PostgresPredictionRepository) GetLatestByEvent(ctx context.Context, event string) (*models.Prediction, error) {
	row := r.db.Pool().QueryRow(ctx,
		selectPrediction+` WHERE event = $1 ORDER BY created_at DESC LIMIT 1`, event)

	p, err := scanPrediction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPredictionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest prediction: %w", err)
	}
	return p, nil
}

// ListByEvent retrieves an event's predictions, newest first
func (r *PostgresPredictionRepository) ListByEvent(ctx context.Context, event string, limit int) ([]*models.Prediction, error) {
	rows, err := r.db.Pool().Query(ctx,
		selectPrediction+` WHERE event = $1 ORDER BY created_at DESC LIMIT $2`, event, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanPrediction, err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

func scanPrediction(row pgx.Row) (*models.Prediction, error) {
	var (
		p         models.Prediction
		counts    []byte
		forecasts []byte
		trace     []byte
	)
	err := row.Scan(
		&p.ID, &p.Event, &p.TotalLaps, &p.RainProbability, &p.Iterations, &p.Seed, &p.Weather,
		&counts, &forecasts, &trace, &p.DurationMS, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &p.WeatherCounts); err != nil {
			return nil, fmt.Errorf("failed to decode weather counts: %w", err)
		}
	}
	if err := json.Unmarshal(forecasts, &p.Forecasts); err != nil {
		return nil, fmt.Errorf("failed to decode forecasts: %w", err)
	}
	if len(trace) > 0 {
		p.Trace = trace
	}
	return &p, nil
}
