package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidID          = errors.New("invalid ID format")
	ErrInsufficientData   = errors.New("insufficient lap data")
	ErrUnknownEvent       = errors.New("unknown event")
)
