package profiling

import (
	"math"

	"pisaresilience/domain/dataset"
)

// ColumnProfile is one row of the column-wise missingness report.
type ColumnProfile struct {
	Column  string       `json:"column"`
	Count   int          `json:"count"`
	NARatio float64      `json:"na_ratio"`
	Numeric bool         `json:"numeric"`
	Summary SummaryStats `json:"summary"`
}

// DataProfiler builds describe()-style column profiles.
type DataProfiler struct{}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{}
}

// NARatio is the percentage of missing cells, rounded to two decimals:
// 100 - nonNull/rows*100. It is NaN for an empty column.
func NARatio(nonNull, rows int) float64 {
	if rows == 0 {
		return math.NaN()
	}
	return Round(100-float64(nonNull)/float64(rows)*100, 2)
}

// Round rounds half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}

// ProfileColumn reports the non-null count and NA ratio of values. A column
// whose non-null values all cast to float also gets summary statistics.
func (dp *DataProfiler) ProfileColumn(name string, values []dataset.Value) ColumnProfile {
	profile := ColumnProfile{Column: name}

	numeric := true
	floats := make([]float64, 0, len(values))
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		profile.Count++
		if f, ok := v.Float(); ok {
			floats = append(floats, f)
		} else {
			numeric = false
		}
	}
	profile.NARatio = NARatio(profile.Count, len(values))

	if numeric && len(floats) > 0 {
		if summary, err := Summarize(floats); err == nil {
			profile.Numeric = true
			profile.Summary = summary
		}
	}
	return profile
}

// ProfileTable profiles every column of t in column order.
func (dp *DataProfiler) ProfileTable(t *dataset.Table) []ColumnProfile {
	columns := t.Columns()
	profiles := make([]ColumnProfile, 0, len(columns))
	for _, c := range columns {
		values, _ := t.Column(c)
		profiles = append(profiles, dp.ProfileColumn(c, values))
	}
	return profiles
}
