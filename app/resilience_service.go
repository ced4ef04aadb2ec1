package app

import (
	"context"
	"time"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/pipeline"
	"pisaresilience/ports"

	"go.uber.org/zap"
)

// ResilienceService loads the survey data once, runs the pipeline for each
// requested plausible-value index and persists what every run produces.
type ResilienceService struct {
	source   ports.InputSource
	codebook *dataset.Codebook
	exporter ports.ResultExporter
	ledger   ports.RunLedger
	reporter ports.DiagnosticsWriter
	opts     pipeline.Options
	workers  int
	logger   *zap.Logger
}

// ServiceDeps are the collaborators of the service. Ledger and Reporter are
// optional.
type ServiceDeps struct {
	Source   ports.InputSource
	Codebook *dataset.Codebook
	Exporter ports.ResultExporter
	Ledger   ports.RunLedger
	Reporter ports.DiagnosticsWriter
	Logger   *zap.Logger
}

// NewResilienceService creates the service. opts carries the defaults for
// every run; the index is set per run.
func NewResilienceService(deps ServiceDeps, opts pipeline.Options, workers int) (*ResilienceService, error) {
	if deps.Source == nil || deps.Codebook == nil || deps.Exporter == nil {
		return nil, errors.InvalidParameter("source, codebook and exporter are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilienceService{
		source:   deps.Source,
		codebook: deps.Codebook,
		exporter: deps.Exporter,
		ledger:   deps.Ledger,
		reporter: deps.Reporter,
		opts:     opts,
		workers:  workers,
		logger:   logger.Named("service"),
	}, nil
}

// RunRequest selects the indices to run.
type RunRequest struct {
	Indices     []int
	Diagnostics bool
}

// RunOutcome is the result of one index with the files written for it.
type RunOutcome struct {
	Index  int
	Result *pipeline.Result
	Files  []string
	Err    error
}

// RunReport summarizes a batch.
type RunReport struct {
	Outcomes        []RunOutcome
	DescriptiveFile string
	Duration        time.Duration
}

// Failed counts the outcomes that carry an error.
func (r *RunReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Run loads the input and processes every requested index. A failing index
// is reported in its outcome and does not stop the others; only a load
// failure is returned as an error.
func (s *ResilienceService) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	start := time.Now()
	if len(req.Indices) == 0 {
		return nil, errors.InvalidParameter("no plausible value index requested")
	}

	in, err := s.source.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load input")
	}

	base := s.opts
	base.ProduceDiagnostics = base.ProduceDiagnostics || req.Diagnostics
	runner := pipeline.NewBatchRunner(base, s.codebook, s.logger, s.workers)
	outcomes := runner.Run(ctx, in, req.Indices)

	report := &RunReport{Outcomes: make([]RunOutcome, len(outcomes))}
	for i, o := range outcomes {
		out := RunOutcome{Index: o.Index, Result: o.Result, Err: o.Err}
		if o.Err == nil {
			out.Files, out.Err = s.persist(ctx, o.Result)
			if report.DescriptiveFile == "" && out.Err == nil {
				report.DescriptiveFile, out.Err = s.exporter.WriteDescriptive(o.Result.Missingness)
			}
		}
		if out.Err != nil {
			s.logger.Error("run not completed", zap.Int("pv", o.Index), zap.Error(out.Err))
		}
		report.Outcomes[i] = out
	}

	report.Duration = time.Since(start)
	s.logger.Info("batch complete",
		zap.Int("runs", len(report.Outcomes)),
		zap.Int("failed", report.Failed()),
		zap.Duration("took", report.Duration))
	return report, nil
}

func (s *ResilienceService) persist(ctx context.Context, result *pipeline.Result) ([]string, error) {
	var files []string
	path, err := s.exporter.WriteVariants(result.PlausibleValueIndex, result.Final)
	if err != nil {
		return nil, errors.Wrap(err, "failed to export variants")
	}
	files = append(files, path)

	if s.reporter != nil && result.Diagnostics != nil {
		path, err := s.reporter.Write(result)
		if err != nil {
			return files, errors.Wrap(err, "failed to write diagnostics")
		}
		files = append(files, path)
	}

	if s.ledger != nil {
		if err := s.ledger.SaveRun(ctx, LedgerRecord(result)); err != nil {
			return files, errors.Wrap(err, "failed to record run")
		}
	}
	return files, nil
}

// Describe joins the input and writes the column missingness reports only.
func (s *ResilienceService) Describe(ctx context.Context) ([]pipeline.ColumnReport, string, error) {
	in, err := s.source.Load()
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to load input")
	}
	p, err := pipeline.New(s.opts, s.codebook, s.logger)
	if err != nil {
		return nil, "", err
	}
	joined, warnings, err := p.Join(in)
	if err != nil {
		return nil, "", err
	}
	for _, w := range warnings {
		s.logger.Warn("join warning", zap.Error(w))
	}
	reports, err := pipeline.DescribeAll(joined)
	if err != nil {
		return nil, "", err
	}
	path, err := s.exporter.WriteDescriptive(reports)
	if err != nil {
		return nil, "", err
	}
	return reports, path, nil
}

// LedgerRecord converts a result into the ledger's run record.
func LedgerRecord(result *pipeline.Result) ports.RunRecord {
	record := ports.RunRecord{
		RunID:             result.RunID,
		PlausibleValue:    result.PlausibleValueIndex,
		NARowThreshold:    result.Options.NARowThreshold,
		AcademicThreshold: result.Options.AcademicScoreThreshold,
		Duration:          result.Duration,
	}
	for _, w := range result.Warnings {
		record.Warnings = append(record.Warnings, w.Error())
	}
	for _, rc := range result.Summary {
		record.Counts = append(record.Counts, ports.RunCount{
			Variant:       rc.Variant,
			Country:       rc.Country,
			ESCSThreshold: result.Thresholds[rc.Country].ESCSScore,
			Total:         rc.Total,
			Resilient:     rc.Resilient,
			Ratio:         rc.Ratio,
		})
	}
	return record
}
