package pipeline

import (
	"strings"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
)

// LeadColumns open every final table.
var LeadColumns = append(append([]string{}, dataset.IdentifierColumns...), dataset.ColResilient)

// Finalize concatenates the countries, removes non-predictive columns and
// moves the identifiers and label to the front.
func Finalize(p dataset.Partition) (*dataset.Table, error) {
	merged, err := concatCountries(p, "finalize")
	if err != nil {
		return nil, err
	}
	return OrderColumns(DropNonPredictive(merged))
}

// DropNonPredictive removes CNTRYID, AcademicScore and every column whose name
// contains the plausible-value marker.
func DropNonPredictive(t *dataset.Table) *dataset.Table {
	drop := []string{dataset.ColCountryID, dataset.ColAcademicScore}
	for _, c := range t.Columns() {
		if strings.Contains(c, dataset.PlausibleValueMarker) {
			drop = append(drop, c)
		}
	}
	return t.DropColumns(drop...)
}

// OrderColumns puts LeadColumns first and keeps the rest in order.
// Applying it twice yields the same table.
func OrderColumns(t *dataset.Table) (*dataset.Table, error) {
	out, err := t.Reorder(LeadColumns...)
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchemaMismatch, err)
	}
	return out, nil
}
