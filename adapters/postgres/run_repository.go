package postgres

import (
	"context"
	"time"

	"pisaresilience/domain/core"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/migration"
	"pisaresilience/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// runRepository implements the RunLedger interface
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run ledger backed by PostgreSQL
func NewRunRepository(db *sqlx.DB) ports.RunLedger {
	return &runRepository{db: db}
}

// EnsureSchema runs the ledger migrations.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	return migration.NewRunner().Run(ctx, db)
}

type runRow struct {
	ID                string         `db:"id"`
	PVIndex           int            `db:"pv_index"`
	NARowThreshold    int            `db:"na_row_threshold"`
	AcademicThreshold int            `db:"academic_threshold"`
	DurationMS        int64          `db:"duration_ms"`
	Warnings          pq.StringArray `db:"warnings"`
	CreatedAt         time.Time      `db:"created_at"`
}

type countRow struct {
	RunID string `db:"run_id"`
	ports.RunCount
}

// SaveRun inserts the run and its counts in one transaction
func (r *runRepository) SaveRun(ctx context.Context, record ports.RunRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.StorageError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	warnings := record.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO pipeline_runs (
		id, pv_index, na_row_threshold, academic_threshold, duration_ms, warnings
	) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.RunID.String(), record.PlausibleValue, record.NARowThreshold, record.AcademicThreshold,
		record.Duration.Milliseconds(), pq.Array(warnings),
	)
	if err != nil {
		return errors.StorageError("failed to insert run", err)
	}

	for _, c := range record.Counts {
		row := countRow{RunID: record.RunID.String(), RunCount: c}
		_, err := tx.NamedExecContext(ctx, `INSERT INTO run_counts (
			run_id, variant, country, escs_threshold, total, resilient, ratio
		) VALUES (:run_id, :variant, :country, :escs_threshold, :total, :resilient, :ratio)`, row)
		if err != nil {
			return errors.StorageError("failed to insert run counts", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageError("failed to commit run", err)
	}
	return nil
}

// ListRuns returns the latest runs first, with their counts
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `SELECT
		id, pv_index, na_row_threshold, academic_threshold, duration_ms, warnings, created_at
	FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.StorageError("failed to list runs", err)
	}

	records := make([]ports.RunRecord, 0, len(rows))
	for _, row := range rows {
		var counts []ports.RunCount
		err := r.db.SelectContext(ctx, &counts, `SELECT
			variant, country, escs_threshold, total, resilient, ratio
		FROM run_counts WHERE run_id = $1 ORDER BY variant, country`, row.ID)
		if err != nil {
			return nil, errors.StorageError("failed to load run counts", err)
		}
		records = append(records, ports.RunRecord{
			RunID:             core.RunID(row.ID),
			PlausibleValue:    row.PVIndex,
			NARowThreshold:    row.NARowThreshold,
			AcademicThreshold: row.AcademicThreshold,
			Duration:          time.Duration(row.DurationMS) * time.Millisecond,
			Warnings:          []string(row.Warnings),
			CreatedAt:         row.CreatedAt,
			Counts:            counts,
		})
	}
	return records, nil
}
