package migration

import (
	"context"

	"pisaresilience/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run ledger schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every statement
// is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createPipelineRunsTable(ctx, db); err != nil {
		return errors.StorageError("failed to create pipeline_runs table", err)
	}

	if err := r.createRunCountsTable(ctx, db); err != nil {
		return errors.StorageError("failed to create run_counts table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.StorageError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createPipelineRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_runs (
			id UUID PRIMARY KEY,
			pv_index INTEGER NOT NULL,
			na_row_threshold INTEGER NOT NULL,
			academic_threshold INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			warnings TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createRunCountsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_counts (
			run_id UUID NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
			variant VARCHAR(16) NOT NULL,
			country VARCHAR(8) NOT NULL,
			escs_threshold DOUBLE PRECISION NOT NULL,
			total INTEGER NOT NULL,
			resilient INTEGER NOT NULL,
			ratio DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, variant, country)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_pipeline_runs_pv_index ON pipeline_runs(pv_index, created_at DESC)
	`)
	return err
}
