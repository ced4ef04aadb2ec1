package pipeline

import (
	stderrors "errors"
	"testing"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runFixture(t *testing.T, opts Options) *Result {
	t.Helper()
	p, err := New(opts, testkit.Codebook(), zap.NewNop())
	require.NoError(t, err)
	result, err := p.Run(testkit.Input())
	require.NoError(t, err)
	return result
}

func sumResilient(t *testing.T, tbl *dataset.Table) int {
	n := 0
	for _, v := range column(t, tbl, dataset.ColResilient) {
		if v == "1" {
			n++
		}
	}
	return n
}

func TestRun_EndToEnd(t *testing.T) {
	result := runFixture(t, testOptions())

	assert.False(t, result.RunID.IsEmpty())
	assert.Empty(t, result.Warnings)

	assert.InDelta(t, -0.875, result.Thresholds[dataset.Korea].ESCSScore, 1e-12)
	assert.InDelta(t, -0.9, result.Thresholds[dataset.UnitedStates].ESCSScore, 1e-12)

	full := result.Labeled[dataset.Full]
	assert.Equal(t, 10, full[dataset.Korea].NumRows())
	assert.Equal(t, 9, full[dataset.UnitedStates].NumRows())
	assert.Equal(t, 3, sumResilient(t, full[dataset.Korea]))
	assert.Equal(t, 2, sumResilient(t, full[dataset.UnitedStates]))

	sliced := result.Labeled[dataset.Sliced]
	assert.Equal(t, 3, sliced[dataset.Korea].NumRows())
	assert.Equal(t, 2, sliced[dataset.UnitedStates].NumRows())
	assert.Equal(t, 3, sumResilient(t, sliced[dataset.Korea]))
	assert.Equal(t, 2, sumResilient(t, sliced[dataset.UnitedStates]))

	wantColumns := []string{"CNT", "CNTSCHID", "CNTSTUID", "resilient", "ESCS", "ST001", "ST002",
		"SC001", "SC002", "SC003", "TC001", "TC002"}
	assert.Equal(t, wantColumns, result.Final[dataset.Full].Columns())
	assert.Equal(t, wantColumns, result.Final[dataset.Sliced].Columns())
	assert.Equal(t, 19, result.Final[dataset.Full].NumRows())
	assert.Equal(t, 5, result.Final[dataset.Sliced].NumRows())
	assert.Equal(t, 5, sumResilient(t, result.Final[dataset.Full]))

	require.Len(t, result.Summary, 4)
	assert.Equal(t, ResilienceCount{Variant: dataset.Full, Country: dataset.Korea, Total: 10, Resilient: 3, Ratio: 30}, result.Summary[0])

	require.Len(t, result.Missingness, 3)
	require.Len(t, result.RowFilter, 3)
	assert.Equal(t, 1, result.RowFilter[0].Dropped)
	assert.Equal(t, 0, result.RowFilter[1].Dropped)
	assert.Equal(t, 1, result.RowFilter[2].Dropped)
	assert.Nil(t, result.Diagnostics)
}

func TestRun_DefaultThresholdKeepsAllRows(t *testing.T) {
	result := runFixture(t, DefaultOptions())
	assert.Equal(t, 20, result.Final[dataset.Full].NumRows())
	// the unlabeled US student has no score and stays 0
	assert.Equal(t, 2, sumResilient(t, result.Labeled[dataset.Full][dataset.UnitedStates]))
}

func TestRun_SecondPlausibleValueBelowCutoff(t *testing.T) {
	opts := testOptions()
	opts.PlausibleValueIndex = 2
	result := runFixture(t, opts)
	assert.Equal(t, 0, sumResilient(t, result.Final[dataset.Full]))
	assert.Equal(t, 0, sumResilient(t, result.Final[dataset.Sliced]))
}

func TestRun_MissingTeacherDataWarns(t *testing.T) {
	in := testkit.Input()
	for _, c := range dataset.Countries {
		src := in[c]
		src.Teacher = nil
		in[c] = src
	}
	p, err := New(testOptions(), testkit.Codebook(), zap.NewNop())
	require.NoError(t, err)
	result, err := p.Run(in)
	require.NoError(t, err)

	assert.Len(t, result.Warnings, 2)
	assert.False(t, result.Final[dataset.Full].HasColumn("TC001"))
	assert.Equal(t, 5, sumResilient(t, result.Final[dataset.Full]))
}

func TestRun_CollaboratorMissingForOneCountry(t *testing.T) {
	cases := []struct {
		name    string
		drop    func(*dataset.Sources)
		absent  string
		present string
	}{
		{"school", func(src *dataset.Sources) { src.School = nil }, "SC001", "TC001"},
		{"teacher", func(src *dataset.Sources) { src.Teacher = nil }, "TC001", "SC001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := testkit.Input()
			src := in[dataset.UnitedStates]
			tc.drop(&src)
			in[dataset.UnitedStates] = src

			p, err := New(testOptions(), testkit.Codebook(), zap.NewNop())
			require.NoError(t, err)
			result, err := p.Run(in)
			require.NoError(t, err)

			require.Len(t, result.Warnings, 1)
			assert.True(t, stderrors.Is(result.Warnings[0], errors.ErrMissingCollaboratorData))
			assert.False(t, result.Labeled[dataset.Full][dataset.UnitedStates].HasColumn(tc.absent))

			// the padded columns do not count as missing answers
			assert.Equal(t, 1, result.RowFilter[0].Dropped)
			full := result.Final[dataset.Full]
			assert.Equal(t, 19, full.NumRows())
			assert.Equal(t, 5, sumResilient(t, full))

			absent := column(t, full, tc.absent)
			present := column(t, full, tc.present)
			assert.NotEmpty(t, absent[0])
			for i := 10; i < full.NumRows(); i++ {
				assert.Empty(t, absent[i], "US row %d", i)
				assert.NotEmpty(t, present[i], "US row %d", i)
			}
		})
	}
}

func TestRun_Diagnostics(t *testing.T) {
	opts := testOptions()
	opts.ProduceDiagnostics = true
	result := runFixture(t, opts)

	require.NotNil(t, result.Diagnostics)
	assert.Len(t, result.Diagnostics.NAHistograms, 3)
	for _, d := range result.Diagnostics.Distributions {
		if d.Column == dataset.ColESCS {
			assert.Equal(t, d.Variant == dataset.Full, d.HasThreshold)
		} else {
			assert.True(t, d.HasThreshold)
			assert.Equal(t, 480.0, d.Threshold)
		}
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.PlausibleValueIndex = 11
	_, err := New(opts, testkit.Codebook(), nil)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidParameter))

	_, err = New(DefaultOptions(), nil, nil)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidParameter))
}

func TestRun_MissingCountry(t *testing.T) {
	in := testkit.Input()
	delete(in, dataset.Korea)
	p, err := New(DefaultOptions(), testkit.Codebook(), nil)
	require.NoError(t, err)
	_, err = p.Run(in)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidParameter))
}
