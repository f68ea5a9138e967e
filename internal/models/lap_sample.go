package models

// LapSample is one historical lap of one driver
type LapSample struct {
	Driver    string  `json:"driver" validate:"required"`
	LapNumber int     `json:"lap_number" validate:"gte=0"`
	LapTime   float64 `json:"lap_time"`
	PitIn     bool    `json:"pit_in,omitempty"`
	PitOut    bool    `json:"pit_out,omitempty"`
}

// IsPitLap reports whether the lap included a pit entry or exit
func (l LapSample) IsPitLap() bool {
	return l.PitIn || l.PitOut
}
