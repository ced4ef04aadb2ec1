package pipeline

import (
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/profiling"

	"go.uber.org/zap"
)

// ESCSPercentile is the socio-economic cutoff percentile.
const ESCSPercentile = 25

// ThresholdCalculator derives per-country thresholds and annotates each
// student with AcademicScore.
type ThresholdCalculator struct {
	logger *zap.Logger
}

func NewThresholdCalculator(logger *zap.Logger) *ThresholdCalculator {
	return &ThresholdCalculator{logger: logger.Named("threshold")}
}

// Calculate sets AcademicScore to the row mean of the selected reading
// plausible values and computes each country's ESCS cutoff from that
// country's own castable ESCS values. academicThreshold is applied to every
// country unchanged.
func (c *ThresholdCalculator) Calculate(p dataset.Partition, pvIndices []int, academicThreshold int) (dataset.Thresholds, dataset.Partition, error) {
	if len(pvIndices) == 0 {
		return nil, nil, errors.InvalidParameter("no plausible value index selected")
	}
	targets := make([]string, 0, len(pvIndices))
	for _, k := range pvIndices {
		col, err := PlausibleValueColumn(k)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, col)
	}

	thresholds := make(dataset.Thresholds, len(dataset.Countries))
	annotated, err := mapCountries(p, func(country dataset.Country, t *dataset.Table) (*dataset.Table, error) {
		scores, err := academicScores(t, targets)
		if err != nil {
			return nil, err
		}
		escs, err := ESCSCutoff(t)
		if err != nil {
			return nil, err
		}
		thresholds[country] = dataset.ThresholdInfo{AcademicScore: academicThreshold, ESCSScore: escs}
		c.logger.Debug("threshold",
			zap.String("country", string(country)),
			zap.Strings("targets", targets),
			zap.Int("academic_score", academicThreshold),
			zap.Float64("escs_score", escs))
		return t.WithColumn(dataset.ColAcademicScore, scores)
	})
	if err != nil {
		return nil, nil, err
	}
	return thresholds, annotated, nil
}

// academicScores averages the castable target values of each row, skipping
// missing ones. A row with no usable value gets null.
func academicScores(t *dataset.Table, targets []string) ([]dataset.Value, error) {
	for _, col := range targets {
		if !t.HasColumn(col) {
			return nil, errors.Newf(errors.CodeSchemaMismatch, "plausible value column %s not found", col)
		}
	}
	scores := make([]dataset.Value, t.NumRows())
	for i := range scores {
		sum, n := 0.0, 0
		for _, col := range targets {
			if f, ok := t.Value(i, col).Float(); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			scores[i] = dataset.Null()
			continue
		}
		scores[i] = dataset.Number(sum / float64(n))
	}
	return scores, nil
}

// CastableESCS returns the ESCS values that cast to float, in row order.
func CastableESCS(t *dataset.Table) ([]float64, error) {
	values, err := t.Column(dataset.ColESCS)
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchemaMismatch, err)
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// ESCSCutoff is the 25th percentile of one table's castable ESCS values.
func ESCSCutoff(t *dataset.Table) (float64, error) {
	values, err := CastableESCS(t)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, errors.InsufficientData("no castable ESCS values")
	}
	return profiling.Percentile(values, ESCSPercentile)
}
