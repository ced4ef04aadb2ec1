package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
)

// SparseColumnRatio marks a raw column as unusable when more than this share
// of its cells is missing.
const SparseColumnRatio = 0.8

// SchemaChecker cross-checks that both countries expose the same usable
// variables. A disagreement points at an inconsistent codebook or input.
type SchemaChecker struct {
	logger *zap.Logger
}

func NewSchemaChecker(logger *zap.Logger) *SchemaChecker {
	return &SchemaChecker{logger: logger.Named("schema")}
}

// sparseColumns lists columns with more than SparseColumnRatio missing cells.
func sparseColumns(t *dataset.Table) map[string]bool {
	out := make(map[string]bool)
	if t == nil {
		return out
	}
	limit := float64(t.NumRows()) * SparseColumnRatio
	for _, c := range t.Columns() {
		values, _ := t.Column(c)
		missing := 0
		for _, v := range values {
			if v.IsNull() {
				missing++
			}
		}
		if float64(missing) > limit {
			out[c] = true
		}
	}
	return out
}

func difference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// CheckSources compares, for each of student, school and teacher, the sets of
// sparse columns of SK and US. Any difference is a SchemaMismatch. Sources
// named in skipped are absent for some country and are not compared.
func (s *SchemaChecker) CheckSources(in dataset.Input, skipped map[string]bool) error {
	kinds := append([]collaborator{
		{name: "student", pick: func(src dataset.Sources) *dataset.Table { return src.Student }},
	}, collaborators...)

	var problems []string
	for _, kind := range kinds {
		if skipped[kind.name] {
			s.logger.Warn("source missing for a country, sparse column check skipped", zap.String("source", kind.name))
			continue
		}
		sk := sparseColumns(kind.pick(in[dataset.Korea]))
		us := sparseColumns(kind.pick(in[dataset.UnitedStates]))
		skOnly := difference(sk, us)
		usOnly := difference(us, sk)
		s.logger.Debug("sparse column difference",
			zap.String("source", kind.name),
			zap.Strings("sk_minus_us", skOnly),
			zap.Strings("us_minus_sk", usOnly))
		if len(skOnly) > 0 || len(usOnly) > 0 {
			s.logger.Warn("check your codebook, some columns have too many missing values",
				zap.String("source", kind.name),
				zap.Strings("sk_minus_us", skOnly),
				zap.Strings("us_minus_sk", usOnly))
			problems = append(problems, kind.name)
		}
	}
	if len(problems) > 0 {
		return errors.SchemaMismatch(
			"codebook has invalid features, sparse columns differ between SK and US in " + strings.Join(problems, ", "))
	}
	return nil
}

// CheckAligned requires SK and US to carry the same column set, apart from
// the columns in ignore.
func (s *SchemaChecker) CheckAligned(p dataset.Partition, stage string, ignore map[string]bool) error {
	if err := requireCountries(p); err != nil {
		return err
	}
	sk := columnSet(p[dataset.Korea], ignore)
	us := columnSet(p[dataset.UnitedStates], ignore)
	skOnly := difference(sk, us)
	usOnly := difference(us, sk)
	if len(skOnly) > 0 || len(usOnly) > 0 {
		return errors.SchemaMismatch(fmt.Sprintf(
			"%s: column sets differ (SK only: %v, US only: %v; SK has %d columns, US has %d)",
			stage, skOnly, usOnly, p[dataset.Korea].NumColumns(), p[dataset.UnitedStates].NumColumns()))
	}
	return nil
}

func columnSet(t *dataset.Table, ignore map[string]bool) map[string]bool {
	out := make(map[string]bool, t.NumColumns())
	for _, c := range t.Columns() {
		if !ignore[c] {
			out[c] = true
		}
	}
	return out
}
