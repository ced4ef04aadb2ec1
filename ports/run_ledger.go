package ports

import (
	"context"
	"time"

	"pisaresilience/domain/core"
	"pisaresilience/domain/dataset"
)

// RunCount is one variant and country row of a recorded run.
type RunCount struct {
	Variant       dataset.Variant `db:"variant"`
	Country       dataset.Country `db:"country"`
	ESCSThreshold float64         `db:"escs_threshold"`
	Total         int             `db:"total"`
	Resilient     int             `db:"resilient"`
	Ratio         float64         `db:"ratio"`
}

// RunRecord is what the ledger keeps about one pipeline run.
type RunRecord struct {
	RunID             core.RunID
	PlausibleValue    int
	NARowThreshold    int
	AcademicThreshold int
	Duration          time.Duration
	Warnings          []string
	CreatedAt         time.Time
	Counts            []RunCount
}

// RunLedger stores run thresholds and label counts.
type RunLedger interface {
	SaveRun(ctx context.Context, record RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
