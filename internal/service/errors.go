package service

import (
	"errors"

	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

// Service errors
var (
	ErrInvalidRequest  = errors.New("invalid prediction request")
	ErrStorageDisabled = errors.New("prediction storage is not configured")
)

// IsInvalidInput reports whether err was caused by the caller's input rather
// than the service.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, models.ErrInsufficientData) ||
		simulation.IsValidationError(err)
}
