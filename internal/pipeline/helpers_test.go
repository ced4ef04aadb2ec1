package pipeline

import (
	"testing"

	"pisaresilience/domain/dataset"

	"github.com/stretchr/testify/require"
)

// table builds a small table from rows of raw cells.
func table(t *testing.T, columns []string, rows ...[]string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(columns...)
	require.NoError(t, err)
	for _, r := range rows {
		values := make([]dataset.Value, len(r))
		for i, raw := range r {
			values[i] = dataset.ParseValue(raw)
		}
		require.NoError(t, tbl.AppendRow(values...))
	}
	return tbl
}

func column(t *testing.T, tbl *dataset.Table, name string) []string {
	t.Helper()
	values, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.NARowThreshold = 2
	return opts
}
