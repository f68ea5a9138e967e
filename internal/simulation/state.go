package simulation

import "math"

// Stint is one continuous run on a single set of tyres.
type Stint struct {
	Compound Compound `json:"compound"`
	StartLap int      `json:"start_lap"`
	EndLap   int      `json:"end_lap"`
}

// Laps returns the number of laps covered by the stint.
func (s Stint) Laps() int {
	return s.EndLap - s.StartLap + 1
}

// driverState is the mutable per-driver state of one simulation run. It holds
// a copy of the driver parameters and is never shared across runs.
type driverState struct {
	driver Driver

	currentTyre   Compound
	tyreLaps      int
	compoundsUsed map[Compound]struct{}
	usedOrder     []Compound
	stints        []Stint

	cumulativeTime  float64
	fastestLap      float64
	pitStops        int
	lapTimeHistory  []float64
	positionHistory []int
}

func newDriverState(d Driver, startTyre Compound, totalLaps int) *driverState {
	s := &driverState{
		driver:          d,
		compoundsUsed:   make(map[Compound]struct{}, 2),
		fastestLap:      math.Inf(1),
		lapTimeHistory:  make([]float64, 0, totalLaps),
		positionHistory: make([]int, 0, totalLaps),
	}
	s.fitTyre(startTyre, 1)
	return s
}

func (s *driverState) fitTyre(c Compound, fromLap int) {
	s.currentTyre = c
	s.tyreLaps = 0
	if _, ok := s.compoundsUsed[c]; !ok {
		s.compoundsUsed[c] = struct{}{}
		s.usedOrder = append(s.usedOrder, c)
	}
	s.stints = append(s.stints, Stint{Compound: c, StartLap: fromLap, EndLap: fromLap})
}

func (s *driverState) hasUsed(c Compound) bool {
	_, ok := s.compoundsUsed[c]
	return ok
}

func (s *driverState) completeLap(lap int, lapTime float64) {
	s.cumulativeTime += lapTime
	if lapTime < s.fastestLap {
		s.fastestLap = lapTime
	}
	s.tyreLaps++
	s.stints[len(s.stints)-1].EndLap = lap
}

func (s *driverState) pit(next Compound, lap int) {
	s.cumulativeTime += s.driver.PitStopLoss
	s.pitStops++
	s.fitTyre(next, lap+1)
}

func (s *driverState) record(position int) {
	s.positionHistory = append(s.positionHistory, position)
	s.lapTimeHistory = append(s.lapTimeHistory, s.cumulativeTime)
}
