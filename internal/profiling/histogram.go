package profiling

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram holds bin edges and counts. Counts[i] covers
// [Dividers[i], Dividers[i+1]).
type Histogram struct {
	Dividers []float64 `json:"dividers"`
	Counts   []float64 `json:"counts"`
}

// PercentHistogram bins percentages into equal-width bins over [0, 100].
// Values outside the range are clamped; 100 falls into the last bin.
func PercentHistogram(values []float64, bins int) Histogram {
	if bins < 1 {
		bins = 1
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, 100)
	dividers[bins] = math.Nextafter(100, math.Inf(1))

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sorted = append(sorted, math.Min(math.Max(v, 0), 100))
	}
	sort.Float64s(sorted)

	counts := make([]float64, bins)
	if len(sorted) > 0 {
		counts = stat.Histogram(counts, dividers, sorted, nil)
	}
	dividers[bins] = 100
	return Histogram{Dividers: dividers, Counts: counts}
}
