package montecarlo

import (
	"math"
	"sort"
	"strconv"
)

var intervalLevels = []float64{0.90, 0.95, 0.99}

// CalculateConfidenceIntervals returns the width of the central interval of
// distribution for each level, keyed like "95%". The distribution is sorted
// once; percentiles interpolate between neighbouring samples.
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	sorted := append([]float64(nil), distribution...)
	sort.Float64s(sorted)

	widths := make(map[string]float64, len(levels))
	for _, level := range levels {
		tail := (1 - level) / 2
		widths[levelKey(level)] = quantile(sorted, 1-tail) - quantile(sorted, tail)
	}
	return widths
}

// meanStd returns the mean and population standard deviation using
// Welford's single-pass update.
func meanStd(values []float64) (float64, float64) {
	var mean, m2 float64
	for i, v := range values {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}
	if len(values) == 0 {
		return 0, 0
	}
	return mean, math.Sqrt(m2 / float64(len(values)))
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	switch n := len(sorted); {
	case n == 0:
		return 0
	case n == 1 || q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[n-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func levelKey(level float64) string {
	return strconv.FormatFloat(level*100, 'f', 0, 64) + "%"
}
