package profiling

import (
	"math"
	"sort"

	"pisaresilience/domain/core"
)

// Quantile returns the p-quantile (0 <= p <= 1) of data using linear
// interpolation between the closest ranks: position p*(n-1) in the sorted
// sample, the same as the numpy and pandas default. data is not modified.
func Quantile(data []float64, p float64) (float64, error) {
	if len(data) == 0 {
		return math.NaN(), core.ErrEmptyDistribution
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN(), core.NewValidationError("quantile", "p must be within [0, 1]")
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// Percentile is Quantile with p expressed in percent.
func Percentile(data []float64, percent float64) (float64, error) {
	return Quantile(data, percent/100)
}
