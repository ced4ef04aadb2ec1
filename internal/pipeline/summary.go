package pipeline

import (
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/profiling"
)

// ResilienceCount is the number and share of resilient students in one
// country of one variant.
type ResilienceCount struct {
	Variant   dataset.Variant `json:"variant"`
	Country   dataset.Country `json:"country"`
	Total     int             `json:"total"`
	Resilient int             `json:"resilient"`
	// Ratio is the resilient share in percent, rounded to two decimals.
	Ratio float64 `json:"ratio"`
}

// CountResilient tallies the resilient column of every country table.
func CountResilient(p dataset.Partition, variant dataset.Variant) []ResilienceCount {
	out := make([]ResilienceCount, 0, len(dataset.Countries))
	for _, c := range dataset.Countries {
		t := p[c]
		if t == nil {
			continue
		}
		rc := ResilienceCount{Variant: variant, Country: c, Total: t.NumRows()}
		for i := 0; i < t.NumRows(); i++ {
			if f, ok := t.Value(i, dataset.ColResilient).Float(); ok && f == 1 {
				rc.Resilient++
			}
		}
		if rc.Total > 0 {
			rc.Ratio = profiling.Round(float64(rc.Resilient)/float64(rc.Total)*100, 2)
		}
		out = append(out, rc)
	}
	return out
}
