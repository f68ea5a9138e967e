package simulation

import "errors"

// Input validation errors
var (
	ErrNoDrivers              = errors.New("at least one driver is required")
	ErrInvalidLapCount        = errors.New("total laps must be at least 1")
	ErrInvalidBaseLapTime     = errors.New("base lap time must be positive")
	ErrInvalidPitStopLoss     = errors.New("pit stop loss must be positive")
	ErrInvalidConsistency     = errors.New("consistency must not be negative")
	ErrDuplicateDriver        = errors.New("driver names must be unique")
	ErrEmptyDriverName        = errors.New("driver name is required")
	ErrInvalidRainProbability = errors.New("rain probability must be within [0, 1]")
)

var validationErrors = []error{
	ErrNoDrivers,
	ErrInvalidLapCount,
	ErrInvalidBaseLapTime,
	ErrInvalidPitStopLoss,
	ErrInvalidConsistency,
	ErrDuplicateDriver,
	ErrEmptyDriverName,
	ErrInvalidRainProbability,
}

// IsValidationError reports whether err wraps one of the input validation errors.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
