package simulation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLapPenaltyZeroOnFreshTyres(t *testing.T) {
	for _, c := range Compounds() {
		assert.Equal(t, 0.0, LapPenalty(c, 0), "compound %s", c)
	}
}

func TestLapPenaltyNonDecreasing(t *testing.T) {
	for _, c := range Compounds() {
		prev := LapPenalty(c, 0)
		for laps := 1; laps <= 80; laps++ {
			p := LapPenalty(c, laps)
			assert.GreaterOrEqual(t, p, prev, "compound %s at %d laps", c, laps)
			prev = p
		}
	}
}

func TestLapPenaltyCliff(t *testing.T) {
	// SOFT: 0.15/lap, cliff after 14 laps
	assert.InDelta(t, 0.15*14, LapPenalty(CompoundSoft, 14), 1e-9)
	assert.InDelta(t, 0.15*16+2*0.15*0.5, LapPenalty(CompoundSoft, 16), 1e-9)

	// HARD: 0.05/lap, cliff after 35 laps
	assert.InDelta(t, 0.05*35, LapPenalty(CompoundHard, 35), 1e-9)
	assert.InDelta(t, 0.05*40+5*0.05*0.5, LapPenalty(CompoundHard, 40), 1e-9)
}

func TestLapPenaltyUnknownCompound(t *testing.T) {
	assert.Equal(t, 0.0, LapPenalty(Compound("SLICK"), 10))
}

func TestSpeedBonus(t *testing.T) {
	assert.Equal(t, -1.0, SpeedBonus(CompoundSoft))
	assert.Equal(t, -0.5, SpeedBonus(CompoundMedium))
	assert.Equal(t, 0.0, SpeedBonus(CompoundHard))
	assert.Equal(t, 0.0, SpeedBonus(CompoundIntermediate))
	assert.Equal(t, 0.0, SpeedBonus(CompoundWet))
}

func TestCompoundSets(t *testing.T) {
	assert.Equal(t, []Compound{CompoundSoft, CompoundMedium, CompoundHard}, DryCompounds())
	assert.Equal(t, []Compound{CompoundIntermediate, CompoundWet}, WetCompounds())
	for _, c := range DryCompounds() {
		assert.True(t, c.IsDry())
	}
	for _, c := range WetCompounds() {
		assert.False(t, c.IsDry())
	}
}

func TestIsWorn(t *testing.T) {
	assert.False(t, IsWorn(CompoundSoft, 15))
	assert.True(t, IsWorn(CompoundSoft, 16))
	assert.False(t, IsWorn(CompoundHard, 39))
	assert.True(t, IsWorn(CompoundHard, 40))
}

func TestParseCompound(t *testing.T) {
	c, err := ParseCompound("inter")
	require.NoError(t, err)
	assert.Equal(t, CompoundIntermediate, c)

	c, err = ParseCompound(" soft ")
	require.NoError(t, err)
	assert.Equal(t, CompoundSoft, c)

	_, err = ParseCompound("hypersoft")
	assert.Error(t, err)
}

func TestCompoundJSON(t *testing.T) {
	data, err := json.Marshal([]Compound{CompoundSoft, CompoundWet})
	require.NoError(t, err)
	assert.JSONEq(t, `["SOFT","WET"]`, string(data))

	var decoded []Compound
	require.NoError(t, json.Unmarshal([]byte(`["medium","INTER"]`), &decoded))
	assert.Equal(t, []Compound{CompoundMedium, CompoundIntermediate}, decoded)

	assert.Error(t, json.Unmarshal([]byte(`["ULTRA"]`), &decoded))
}
