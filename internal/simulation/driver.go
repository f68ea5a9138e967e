package simulation

import (
	"fmt"
	"math"
)

// Driver holds the immutable performance parameters of one entrant.
type Driver struct {
	Name string `json:"name" validate:"required"`
	// BaseLapTime is the mean clean-air lap in seconds.
	BaseLapTime float64 `json:"base_lap_time" validate:"gt=0"`
	// Consistency is the standard deviation of the lap time in seconds.
	Consistency float64 `json:"consistency" validate:"gte=0"`
	// PitStopLoss is the time lost per stop in seconds.
	PitStopLoss float64 `json:"pit_stop_loss" validate:"gt=0"`
}

// Validate checks the race preconditions. The returned error wraps one of the
// package sentinel errors.
func Validate(drivers []Driver, totalLaps int, rainProbability float64) error {
	if len(drivers) == 0 {
		return ErrNoDrivers
	}
	if totalLaps < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLapCount, totalLaps)
	}
	if math.IsNaN(rainProbability) || rainProbability < 0 || rainProbability > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidRainProbability, rainProbability)
	}

	seen := make(map[string]struct{}, len(drivers))
	for i, d := range drivers {
		if d.Name == "" {
			return fmt.Errorf("%w: driver at index %d", ErrEmptyDriverName, i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: %q appears more than once", ErrDuplicateDriver, d.Name)
		}
		seen[d.Name] = struct{}{}

		if !(d.BaseLapTime > 0) || math.IsInf(d.BaseLapTime, 0) {
			return fmt.Errorf("%w: driver %q has %v", ErrInvalidBaseLapTime, d.Name, d.BaseLapTime)
		}
		if !(d.PitStopLoss > 0) || math.IsInf(d.PitStopLoss, 0) {
			return fmt.Errorf("%w: driver %q has %v", ErrInvalidPitStopLoss, d.Name, d.PitStopLoss)
		}
		if math.IsNaN(d.Consistency) || d.Consistency < 0 {
			return fmt.Errorf("%w: driver %q has %v", ErrInvalidConsistency, d.Name, d.Consistency)
		}
	}
	return nil
}
