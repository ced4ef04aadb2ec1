package pipeline

import (
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
)

// Slicer restricts each country to students below its ESCS cutoff.
type Slicer struct {
	logger *zap.Logger
}

func NewSlicer(logger *zap.Logger) *Slicer {
	return &Slicer{logger: logger.Named("slicer")}
}

// Slice keeps rows whose ESCS casts to float and is strictly below the
// country's cutoff. The input partition is not modified.
func (s *Slicer) Slice(p dataset.Partition, thresholds dataset.Thresholds) (dataset.Partition, error) {
	return mapCountries(p, func(c dataset.Country, t *dataset.Table) (*dataset.Table, error) {
		info, ok := thresholds[c]
		if !ok {
			return nil, errors.Newf(errors.CodeInvalidParameter, "no threshold for %s", c)
		}
		if !t.HasColumn(dataset.ColESCS) {
			return nil, errors.Newf(errors.CodeSchemaMismatch, "slice: column %s not found", dataset.ColESCS)
		}
		out := t.FilterRows(func(i int) bool {
			e, ok := t.Value(i, dataset.ColESCS).Float()
			return ok && e < info.ESCSScore
		})
		s.logger.Debug("slice", zap.String("country", string(c)),
			zap.Int("before", t.NumRows()), zap.Int("after", out.NumRows()))
		return out, nil
	})
}
