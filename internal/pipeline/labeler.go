package pipeline

import (
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
)

// IsResilient applies the labeling rule to one student. Both comparisons are
// strict; a missing or non-numeric operand never satisfies them.
//
// full:   AcademicScore > academic cutoff AND ESCS < ESCS cutoff
// sliced: AcademicScore > academic cutoff (the population is already below
// the ESCS cutoff)
func IsResilient(academic, escs dataset.Value, mode dataset.Variant, info dataset.ThresholdInfo) bool {
	score, ok := academic.Float()
	if !ok || !(score > float64(info.AcademicScore)) {
		return false
	}
	if mode == dataset.Sliced {
		return true
	}
	e, ok := escs.Float()
	return ok && e < info.ESCSScore
}

// Label returns a copy of t with the resilient column set to 1 or 0.
func Label(t *dataset.Table, mode dataset.Variant, info dataset.ThresholdInfo) (*dataset.Table, error) {
	if _, err := dataset.ParseVariant(string(mode)); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidParameter, err)
	}
	if !t.HasColumn(dataset.ColAcademicScore) {
		return nil, errors.Newf(errors.CodeSchemaMismatch, "label: column %s not found", dataset.ColAcademicScore)
	}
	if mode == dataset.Full && !t.HasColumn(dataset.ColESCS) {
		return nil, errors.Newf(errors.CodeSchemaMismatch, "label: column %s not found", dataset.ColESCS)
	}

	labels := make([]dataset.Value, t.NumRows())
	for i := range labels {
		if IsResilient(t.Value(i, dataset.ColAcademicScore), t.Value(i, dataset.ColESCS), mode, info) {
			labels[i] = dataset.Number(1)
		} else {
			labels[i] = dataset.Number(0)
		}
	}
	return t.WithColumn(dataset.ColResilient, labels)
}

// LabelPartition labels each country with its own thresholds.
func LabelPartition(p dataset.Partition, mode dataset.Variant, thresholds dataset.Thresholds) (dataset.Partition, error) {
	return mapCountries(p, func(c dataset.Country, t *dataset.Table) (*dataset.Table, error) {
		info, ok := thresholds[c]
		if !ok {
			return nil, errors.Newf(errors.CodeInvalidParameter, "no threshold for %s", c)
		}
		return Label(t, mode, info)
	})
}
