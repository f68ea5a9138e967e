package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/fantasy-grid/internal/models"
)

// PredictionRepository defines the interface for prediction data access
type PredictionRepository interface {
	Create(ctx context.Context, prediction *models.Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	GetLatestByEvent(ctx context.Context, event string) (*models.Prediction, error)
	ListByEvent(ctx context.Context, event string, limit int) ([]*models.Prediction, error)
}
