package simulation

import (
	"sort"
)

const (
	// defaultDriverSkill is passed to ApplyWeatherImpact for every driver
	// until a per-driver wet-weather rating exists.
	defaultDriverSkill = 1.0
	// minUndercutLaps is the laps remaining below which a stop is only made
	// for worn tyres.
	minUndercutLaps = 5
)

// RaceResult is the final classification entry of one driver.
type RaceResult struct {
	DriverName    string     `json:"driver_name"`
	Position      int        `json:"position"`
	TotalTime     float64    `json:"total_time"`
	LapsCompleted int        `json:"laps_completed"`
	PitStops      int        `json:"pit_stops"`
	FastestLap    float64    `json:"fastest_lap"`
	FantasyPoints int        `json:"fantasy_points"`
	CompoundsUsed []Compound `json:"compounds_used"`
	Strategy      []Stint    `json:"strategy"`
	// LapTimeHistory holds the cumulative race time at the end of each lap.
	LapTimeHistory  []float64 `json:"lap_time_history"`
	PositionHistory []int     `json:"position_history"`
}

// Outcome is the result of one simulated race.
type Outcome struct {
	Results []RaceResult     `json:"results"`
	Weather WeatherCondition `json:"weather"`
}

// Winner returns the classified winner, or nil for an empty outcome.
func (o Outcome) Winner() *RaceResult {
	if len(o.Results) == 0 {
		return nil
	}
	return &o.Results[0]
}

// SimulateRace runs one stochastic race. Results are ordered by ascending
// total time with positions 1..N. The drivers slice is only read.
func SimulateRace(rng Rand, drivers []Driver, totalLaps int, rainProbability float64) (Outcome, error) {
	if err := Validate(drivers, totalLaps, rainProbability); err != nil {
		return Outcome{}, err
	}

	weather := DetermineWeather(rng, rainProbability)

	states := make([]*driverState, len(drivers))
	for i, d := range drivers {
		start := CompoundSoft
		if rng.Intn(2) == 1 {
			start = CompoundMedium
		}
		states[i] = newDriverState(d, start, totalLaps)
	}

	ranking := make([]*driverState, len(states))

	for lap := 1; lap <= totalLaps; lap++ {
		lapsRemaining := totalLaps - lap + 1

		for _, s := range states {
			runLap(rng, s, lap, weather)
			if lap < totalLaps {
				decidePitStop(s, lap, lapsRemaining, weather)
			}
		}

		copy(ranking, states)
		rankByTime(ranking)
		for pos, s := range ranking {
			s.record(pos + 1)
		}
	}

	return Outcome{Results: classify(states, totalLaps), Weather: weather}, nil
}

func runLap(rng Rand, s *driverState, lap int, weather WeatherCondition) {
	penalty := LapPenalty(s.currentTyre, s.tyreLaps)
	bonus := SpeedBonus(s.currentTyre)

	lapTime := sampleNormal(rng, s.driver.BaseLapTime, s.driver.Consistency) + penalty - bonus
	lapTime = ApplyWeatherImpact(rng, lapTime, weather, defaultDriverSkill)

	s.completeLap(lap, lapTime)
}

// decidePitStop compares the projected cost of staying out on the current
// set against the fixed stop cost, and always stops on worn tyres.
func decidePitStop(s *driverState, lap, lapsRemaining int, weather WeatherCondition) {
	d := s.driver
	next := ChooseNextTyre(s.compoundsUsedList(), weather, lapsRemaining-1)

	currentAvg := d.BaseLapTime + LapPenalty(s.currentTyre, s.tyreLaps+lapsRemaining/2) - SpeedBonus(s.currentTyre)
	freshAvg := d.BaseLapTime + LapPenalty(next, 0) - SpeedBonus(next)

	costToContinue := (currentAvg - freshAvg) * float64(lapsRemaining)
	costToPit := d.PitStopLoss

	if IsWorn(s.currentTyre, s.tyreLaps) || (costToContinue > costToPit && lapsRemaining > minUndercutLaps) {
		s.pit(next, lap)
	}
}

// ChooseNextTyre picks the compound for the next stint. In the rain the
// weather dictates the tyre. In the dry an unused slick is preferred until
// two compounds have been run, after which the choice depends on how far is
// left to go.
func ChooseNextTyre(used []Compound, weather WeatherCondition, lapsRemaining int) Compound {
	switch weather {
	case WeatherWet:
		return CompoundWet
	case WeatherMixed:
		return CompoundIntermediate
	}

	if len(used) < 2 {
		// TODO: product owner to confirm whether stints of 20 laps or fewer
		// should prefer a harder slick. The order is the same either way today.
		for _, c := range DryCompounds() {
			if !containsCompound(used, c) {
				return c
			}
		}
	}

	switch {
	case lapsRemaining > 25:
		return CompoundHard
	case lapsRemaining > 15:
		return CompoundMedium
	default:
		return CompoundSoft
	}
}

func containsCompound(list []Compound, c Compound) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

func (s *driverState) compoundsUsedList() []Compound {
	return s.usedOrder
}

// rankByTime orders drivers by cumulative time. Callers pass the drivers in
// entry order; the sort is stable so exact ties keep that order.
func rankByTime(states []*driverState) {
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].cumulativeTime < states[j].cumulativeTime
	})
}

func classify(states []*driverState, totalLaps int) []RaceResult {
	ordered := make([]*driverState, len(states))
	copy(ordered, states)
	rankByTime(ordered)

	results := make([]RaceResult, len(ordered))
	for i, s := range ordered {
		position := i + 1
		results[i] = RaceResult{
			DriverName:      s.driver.Name,
			Position:        position,
			TotalTime:       s.cumulativeTime,
			LapsCompleted:   totalLaps,
			PitStops:        s.pitStops,
			FastestLap:      s.fastestLap,
			FantasyPoints:   FantasyPoints(position),
			CompoundsUsed:   append([]Compound(nil), s.usedOrder...),
			Strategy:        append([]Stint(nil), s.stints...),
			LapTimeHistory:  s.lapTimeHistory,
			PositionHistory: s.positionHistory,
		}
	}
	return results
}
