package simulation

// scriptedRand replays fixed draws. Once a script is exhausted its last value
// repeats.
type scriptedRand struct {
	floats []float64
	norms  []float64
	ints   []int
	calls  int
}

func (r *scriptedRand) Float64() float64 {
	r.calls++
	return next(&r.floats, 0.5)
}

func (r *scriptedRand) NormFloat64() float64 {
	r.calls++
	return next(&r.norms, 0)
}

func (r *scriptedRand) Intn(n int) int {
	r.calls++
	v := next(&r.ints, 0)
	return v % n
}

func next[T any](script *[]T, fallback T) T {
	if len(*script) == 0 {
		return fallback
	}
	v := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return v
}
