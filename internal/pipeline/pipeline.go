// Package pipeline turns joined PISA survey records into resilience-labeled
// tables: missing-data filtering, per-country thresholds, labeling of the
// full and sliced variants, and final column cleanup.
package pipeline

import (
	"fmt"
	"time"

	"pisaresilience/domain/core"
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
)

// Result is everything one run produces.
type Result struct {
	RunID               core.RunID
	PlausibleValueIndex int
	Options             Options
	Thresholds          dataset.Thresholds
	// Missingness holds the full, SK and US column reports, computed on the
	// joined data before any row is dropped.
	Missingness []ColumnReport
	RowFilter   []ViewStats
	// Labeled keeps the per-country labeled tables, before finalization.
	Labeled map[dataset.Variant]dataset.Partition
	// Final holds one merged, cleaned table per variant.
	Final       map[dataset.Variant]*dataset.Table
	Summary     []ResilienceCount
	Diagnostics *Diagnostics
	// Warnings are non-fatal problems such as skipped merges.
	Warnings []error
	Duration time.Duration
}

// Pipeline runs every stage for one plausible-value index. A Pipeline holds
// no mutable state and may be reused.
type Pipeline struct {
	opts       Options
	logger     *zap.Logger
	schema     *SchemaChecker
	merger     *DemographicMerger
	rowFilter  *RowFilter
	calculator *ThresholdCalculator
	slicer     *Slicer
}

// New validates opts and wires the stages.
func New(opts Options, codebook *dataset.Codebook, logger *zap.Logger) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if codebook == nil {
		return nil, errors.InvalidParameter("codebook is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Int("pv", opts.PlausibleValueIndex))
	return &Pipeline{
		opts:       opts,
		logger:     logger,
		schema:     NewSchemaChecker(logger),
		merger:     NewDemographicMerger(codebook, logger),
		rowFilter:  NewRowFilter(opts.NARowThreshold, logger),
		calculator: NewThresholdCalculator(logger),
		slicer:     NewSlicer(logger),
	}, nil
}

// Join checks the raw sources and merges school and teacher attributes into
// each country's student table.
func (p *Pipeline) Join(in dataset.Input) (dataset.Partition, []error, error) {
	joined, warnings, _, err := p.join(in)
	return joined, warnings, err
}

// join also returns the columns only some countries carry because a school or
// teacher source is missing elsewhere. Later stages fill them with nulls on
// concatenation.
func (p *Pipeline) join(in dataset.Input) (dataset.Partition, []error, map[string]bool, error) {
	for _, c := range dataset.Countries {
		if _, ok := in[c]; !ok {
			return nil, nil, nil, errors.InvalidParameter(fmt.Sprintf("input has no data for %s", c))
		}
	}
	skipped := p.merger.SkippedSources(in)
	if err := p.schema.CheckSources(in, skipped); err != nil {
		return nil, nil, nil, err
	}
	partial := p.merger.SourceColumns(in, skipped)

	joined := make(dataset.Partition, len(dataset.Countries))
	var warnings []error
	for _, c := range dataset.Countries {
		t, w, err := p.merger.Join(c, in[c])
		if err != nil {
			return nil, nil, nil, err
		}
		joined[c] = t
		warnings = append(warnings, w...)
	}

	if err := p.schema.CheckAligned(joined, "join", partial); err != nil {
		return nil, nil, nil, err
	}
	return joined, warnings, partial, nil
}

// Run executes the whole pipeline.
func (p *Pipeline) Run(in dataset.Input) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:               core.NewRunID(),
		PlausibleValueIndex: p.opts.PlausibleValueIndex,
		Options:             p.opts,
	}
	logger := p.logger.With(zap.String("run_id", result.RunID.String()))

	logger.Debug("step1. join dataframe")
	joined, warnings, partial, err := p.join(in)
	if err != nil {
		return nil, errors.Wrap(err, "join failed")
	}
	result.Warnings = warnings

	logger.Debug("step2. verify NA and drop students")
	if result.Missingness, err = DescribeAll(joined); err != nil {
		return nil, errors.Wrap(err, "column missingness report failed")
	}
	filtered, err := p.rowFilter.Apply(joined)
	if err != nil {
		return nil, errors.Wrap(err, "row filter failed")
	}
	result.RowFilter = filtered.Views
	if err := p.schema.CheckAligned(filtered.Filtered, "row filter", partial); err != nil {
		return nil, err
	}

	logger.Debug("step3. thresholds and labels")
	thresholds, annotated, err := p.calculator.Calculate(filtered.Filtered, []int{p.opts.PlausibleValueIndex}, p.opts.AcademicScoreThreshold)
	if err != nil {
		return nil, errors.Wrap(err, "threshold calculation failed")
	}
	result.Thresholds = thresholds

	full, err := LabelPartition(annotated, dataset.Full, thresholds)
	if err != nil {
		return nil, errors.Wrap(err, "labeling full variant failed")
	}
	sliced, err := p.slicer.Slice(annotated, thresholds)
	if err != nil {
		return nil, errors.Wrap(err, "slicing failed")
	}
	if sliced, err = LabelPartition(sliced, dataset.Sliced, thresholds); err != nil {
		return nil, errors.Wrap(err, "labeling sliced variant failed")
	}
	result.Labeled = map[dataset.Variant]dataset.Partition{dataset.Full: full, dataset.Sliced: sliced}

	logger.Debug("step4. merge countries and reorder columns")
	result.Final = make(map[dataset.Variant]*dataset.Table, len(dataset.Variants))
	for _, v := range dataset.Variants {
		final, err := Finalize(result.Labeled[v])
		if err != nil {
			return nil, errors.Wrapf(err, "finalizing %s variant failed", v)
		}
		result.Final[v] = final
		result.Summary = append(result.Summary, CountResilient(result.Labeled[v], v)...)
	}

	for _, rc := range result.Summary {
		logger.Info("academic resilient students",
			zap.String("variant", string(rc.Variant)),
			zap.String("country", string(rc.Country)),
			zap.Int("count", rc.Resilient),
			zap.Int("total", rc.Total),
			zap.Float64("ratio", rc.Ratio))
	}

	if p.opts.ProduceDiagnostics {
		result.Diagnostics = BuildDiagnostics(result.RowFilter, result.Labeled, thresholds)
	}

	result.Duration = time.Since(start)
	logger.Info("run complete", zap.Duration("took", result.Duration))
	return result, nil
}
