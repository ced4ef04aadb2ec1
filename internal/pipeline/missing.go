package pipeline

import (
	"fmt"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/profiling"

	"go.uber.org/zap"
)

// ViewFull labels the combined SK+US view in missingness reports.
const ViewFull = "full"

// ColumnReport is the column-wise missingness table of one view.
type ColumnReport struct {
	View     string
	Rows     int
	Profiles []profiling.ColumnProfile
}

// DescribeByTable profiles each column of a single table.
func DescribeByTable(view string, t *dataset.Table) ColumnReport {
	return ColumnReport{
		View:     view,
		Rows:     t.NumRows(),
		Profiles: profiling.NewDataProfiler().ProfileTable(t),
	}
}

// DescribeByCountry profiles the concatenation of all countries.
func DescribeByCountry(p dataset.Partition) (ColumnReport, error) {
	merged, err := concatCountries(p, "describe")
	if err != nil {
		return ColumnReport{}, err
	}
	return DescribeByTable(ViewFull, merged), nil
}

// DescribeAll returns the full, SK and US reports in that order.
func DescribeAll(p dataset.Partition) ([]ColumnReport, error) {
	full, err := DescribeByCountry(p)
	if err != nil {
		return nil, err
	}
	reports := []ColumnReport{full}
	for _, c := range dataset.Countries {
		reports = append(reports, DescribeByTable(string(c), p[c]))
	}
	return reports, nil
}

// ViewStats records the row-wise pass over one view.
type ViewStats struct {
	View    string
	Rows    int
	Dropped int
	// NARatios holds round(missing/columns*100) for every row of the view.
	NARatios []float64
}

// RowFilterResult carries the filtered per-country tables.
type RowFilterResult struct {
	Filtered dataset.Partition
	Combined *dataset.Table
	Views    []ViewStats
}

// RowFilter drops students with too many missing answers.
type RowFilter struct {
	threshold int
	logger    *zap.Logger
}

func NewRowFilter(threshold int, logger *zap.Logger) *RowFilter {
	return &RowFilter{threshold: threshold, logger: logger.Named("rowfilter")}
}

// keep returns, per row, whether its missing count is at most the threshold.
// padded gives the number of null cells in row i that come from columns the
// row's country does not have; those are not missing answers.
func (f *RowFilter) keep(t *dataset.Table, padded func(i int) int) ([]bool, []float64) {
	keep := make([]bool, t.NumRows())
	ratios := make([]float64, t.NumRows())
	for i := range keep {
		pad := 0
		if padded != nil {
			pad = padded(i)
		}
		n := t.NullCount(i) - pad
		keep[i] = n <= f.threshold
		if width := t.NumColumns() - pad; width > 0 {
			ratios[i] = profiling.Round(float64(n)/float64(width)*100, 0)
		}
	}
	return keep, ratios
}

func (f *RowFilter) apply(view string, t *dataset.Table, padded func(i int) int) (*dataset.Table, []bool, ViewStats) {
	keep, ratios := f.keep(t, padded)
	out := t.FilterRows(func(i int) bool { return keep[i] })
	stats := ViewStats{
		View:     view,
		Rows:     t.NumRows(),
		Dropped:  t.NumRows() - out.NumRows(),
		NARatios: ratios,
	}
	f.logger.Debug("NA drop", zap.String("view", view), zap.Int("dropped", stats.Dropped))
	return out, keep, stats
}

// Apply filters the combined view and each country view independently. The
// per-country results come from the country views; since the drop decision
// is row-local, the combined view must make exactly the same decisions, and
// a disagreement is an InvariantViolation.
func (f *RowFilter) Apply(p dataset.Partition) (*RowFilterResult, error) {
	combined, err := concatCountries(p, "row filter")
	if err != nil {
		return nil, err
	}

	// rows of a country without school or teacher data get null cells for
	// those columns from the concatenation
	padding := make([]int, 0, combined.NumRows())
	for _, c := range dataset.Countries {
		extra := combined.NumColumns() - p[c].NumColumns()
		for i := 0; i < p[c].NumRows(); i++ {
			padding = append(padding, extra)
		}
	}
	combinedOut, combinedKeep, combinedStats := f.apply(ViewFull, combined, func(i int) int { return padding[i] })
	result := &RowFilterResult{
		Filtered: make(dataset.Partition, len(dataset.Countries)),
		Combined: combinedOut,
		Views:    []ViewStats{combinedStats},
	}

	offset := 0
	for _, c := range dataset.Countries {
		out, keep, stats := f.apply(string(c), p[c], nil)
		for i, k := range keep {
			if combinedKeep[offset+i] != k {
				return nil, errors.InvariantViolation(fmt.Sprintf(
					"row filter: %s row %d kept=%t in country view but kept=%t in combined view", c, i, k, combinedKeep[offset+i]))
			}
		}
		offset += len(keep)
		result.Filtered[c] = out
		result.Views = append(result.Views, stats)
	}

	if err := assertRowSum(combinedOut, result.Filtered, "row filter"); err != nil {
		return nil, err
	}
	return result, nil
}
