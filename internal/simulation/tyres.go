// Package simulation implements the single-race outcome simulator: tyre wear,
// race weather, pit-stop strategy and the per-lap ranking loop.
package simulation

import (
	"fmt"
	"strings"
)

// Compound identifies a tyre compound.
type Compound string

// Tyre compounds
const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
)

// TyreProperties holds the static characteristics of a compound.
type TyreProperties struct {
	// SpeedBonus is subtracted from the lap time. Negative is faster than HARD.
	SpeedBonus float64
	// DegradationRate is the penalty in seconds per lap of use.
	DegradationRate float64
	// MaxLaps is the nominal service life.
	MaxLaps int
}

const (
	cliffThreshold   = 0.7
	cliffMultiplier  = 0.5
	wornTyreFraction = 0.8
)

var tyreProperties = map[Compound]TyreProperties{
	CompoundSoft:         {SpeedBonus: -1.0, DegradationRate: 0.15, MaxLaps: 20},
	CompoundMedium:       {SpeedBonus: -0.5, DegradationRate: 0.10, MaxLaps: 30},
	CompoundHard:         {SpeedBonus: 0.0, DegradationRate: 0.05, MaxLaps: 50},
	CompoundIntermediate: {SpeedBonus: 0.0, DegradationRate: 0.08, MaxLaps: 35},
	CompoundWet:          {SpeedBonus: 0.0, DegradationRate: 0.06, MaxLaps: 40},
}

// Compounds returns every compound in declaration order.
func Compounds() []Compound {
	return []Compound{CompoundSoft, CompoundMedium, CompoundHard, CompoundIntermediate, CompoundWet}
}

// DryCompounds returns the slick compounds in preference order.
func DryCompounds() []Compound {
	return []Compound{CompoundSoft, CompoundMedium, CompoundHard}
}

// WetCompounds returns the treaded compounds.
func WetCompounds() []Compound {
	return []Compound{CompoundIntermediate, CompoundWet}
}

// Properties returns the static table entry for the compound.
func (c Compound) Properties() (TyreProperties, bool) {
	props, ok := tyreProperties[c]
	return props, ok
}

// IsDry reports whether the compound is a slick.
func (c Compound) IsDry() bool {
	return c == CompoundSoft || c == CompoundMedium || c == CompoundHard
}

// IsValid reports whether c is one of the known compounds.
func (c Compound) IsValid() bool {
	_, ok := tyreProperties[c]
	return ok
}

func (c Compound) String() string {
	return string(c)
}

// MarshalText implements encoding.TextMarshaler.
func (c Compound) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("unknown tyre compound %q", string(c))
	}
	return []byte(c), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compound) UnmarshalText(text []byte) error {
	parsed, err := ParseCompound(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCompound parses a compound name, case-insensitively. "INTER" is
// accepted as an alias for INTERMEDIATE.
func ParseCompound(s string) (Compound, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "INTER" {
		return CompoundIntermediate, nil
	}
	c := Compound(name)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown tyre compound %q", s)
	}
	return c, nil
}

// LapPenalty returns the time lost to wear after lapsUsed laps on the
// compound. Past 70% of the nominal life the wear accelerates by half again.
// Unknown compounds carry no penalty.
func LapPenalty(c Compound, lapsUsed int) float64 {
	props, ok := tyreProperties[c]
	if !ok || lapsUsed <= 0 {
		return 0
	}

	penalty := props.DegradationRate * float64(lapsUsed)

	cliff := float64(props.MaxLaps) * cliffThreshold
	if float64(lapsUsed) > cliff {
		penalty += (float64(lapsUsed) - cliff) * props.DegradationRate * cliffMultiplier
	}

	return penalty
}

// SpeedBonus returns the static bonus of the compound.
func SpeedBonus(c Compound) float64 {
	return tyreProperties[c].SpeedBonus
}

// MaxLaps returns the nominal service life of the compound.
func MaxLaps(c Compound) int {
	return tyreProperties[c].MaxLaps
}

// IsWorn reports whether a tyre has reached 80% of its nominal life.
func IsWorn(c Compound, lapsUsed int) bool {
	return float64(lapsUsed) >= float64(MaxLaps(c))*wornTyreFraction
}
