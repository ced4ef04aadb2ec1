package pipeline

import (
	"fmt"

	"pisaresilience/internal/errors"
)

const (
	MinPlausibleValueIndex = 1
	MaxPlausibleValueIndex = 10

	DefaultNARowThreshold         = 30
	DefaultAcademicScoreThreshold = 480
)

// Options are the recognized run options.
type Options struct {
	// PlausibleValueIndex selects PV<k>READ as the academic score.
	PlausibleValueIndex int `yaml:"plausible_value_index"`
	// NARowThreshold drops rows with strictly more missing cells than this.
	NARowThreshold int `yaml:"na_row_threshold"`
	// AcademicScoreThreshold is the fixed cutoff applied to both countries.
	AcademicScoreThreshold int `yaml:"academic_score_threshold"`
	// ProduceDiagnostics adds histograms and distribution summaries to the result.
	ProduceDiagnostics bool `yaml:"produce_diagnostics"`
}

// DefaultOptions mirrors the reference run.
func DefaultOptions() Options {
	return Options{
		PlausibleValueIndex:    1,
		NARowThreshold:         DefaultNARowThreshold,
		AcademicScoreThreshold: DefaultAcademicScoreThreshold,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if err := ValidatePlausibleValueIndex(o.PlausibleValueIndex); err != nil {
		return err
	}
	if o.NARowThreshold < 0 {
		return errors.Newf(errors.CodeInvalidParameter, "na row threshold must be non-negative, got %d", o.NARowThreshold)
	}
	return nil
}

// ValidatePlausibleValueIndex rejects indices outside [1, 10].
func ValidatePlausibleValueIndex(k int) error {
	if k < MinPlausibleValueIndex || k > MaxPlausibleValueIndex {
		return errors.Newf(errors.CodeInvalidParameter,
			"plausible value index %d outside [%d, %d]", k, MinPlausibleValueIndex, MaxPlausibleValueIndex)
	}
	return nil
}

// PlausibleValueColumn returns the reading plausible-value column for index k.
func PlausibleValueColumn(k int) (string, error) {
	if err := ValidatePlausibleValueIndex(k); err != nil {
		return "", err
	}
	return fmt.Sprintf("PV%dREAD", k), nil
}

// AllPlausibleValueIndices returns 1 through 10.
func AllPlausibleValueIndices() []int {
	out := make([]int, 0, MaxPlausibleValueIndex)
	for k := MinPlausibleValueIndex; k <= MaxPlausibleValueIndex; k++ {
		out = append(out, k)
	}
	return out
}
