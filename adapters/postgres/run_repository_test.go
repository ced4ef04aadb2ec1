package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"pisaresilience/domain/core"
	"pisaresilience/domain/dataset"
	"pisaresilience/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func TestRunRepository_SaveAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewRunRepository(db)

	record := ports.RunRecord{
		RunID:             core.NewRunID(),
		PlausibleValue:    7,
		NARowThreshold:    30,
		AcademicThreshold: 480,
		Duration:          1500 * time.Millisecond,
		Warnings:          []string{"US: tch data is empty"},
		Counts: []ports.RunCount{
			{Variant: dataset.Full, Country: dataset.Korea, ESCSThreshold: -0.875, Total: 10, Resilient: 3, Ratio: 30},
			{Variant: dataset.Full, Country: dataset.UnitedStates, ESCSThreshold: -0.9, Total: 9, Resilient: 2, Ratio: 22.22},
		},
	}
	require.NoError(t, repo.SaveRun(ctx, record))
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM pipeline_runs WHERE id = $1`, record.RunID.String()) })

	runs, err := repo.ListRuns(ctx, 50)
	require.NoError(t, err)

	var got *ports.RunRecord
	for i := range runs {
		if runs[i].RunID == record.RunID {
			got = &runs[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, 7, got.PlausibleValue)
	assert.Equal(t, record.Duration, got.Duration)
	assert.Equal(t, record.Warnings, got.Warnings)
	assert.ElementsMatch(t, record.Counts, got.Counts)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testDB(t)
	assert.NoError(t, EnsureSchema(context.Background(), db))
}
