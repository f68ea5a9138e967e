package simulation

// Rand is the random source a single simulation draws from. *math/rand.Rand
// satisfies it. A value must not be shared between concurrently running
// simulations.
type Rand interface {
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// sampleNormal always consumes one draw so that a zero stddev does not shift
// the stream for the draws that follow.
func sampleNormal(rng Rand, mean, stddev float64) float64 {
	return mean + stddev*rng.NormFloat64()
}
