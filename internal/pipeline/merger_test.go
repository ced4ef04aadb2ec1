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

func newMerger() *DemographicMerger {
	return NewDemographicMerger(testkit.Codebook(), zap.NewNop())
}

func TestMerge_AttachesSchoolAttributes(t *testing.T) {
	student := testkit.StudentTable(dataset.Korea, testkit.KoreaStudents())
	merged, err := newMerger().Merge(student, testkit.SchoolTable(dataset.Korea), "sch")
	require.NoError(t, err)

	assert.Equal(t, student.NumRows(), merged.NumRows())
	assert.Equal(t, append(testkit.StudentColumns, "SC001", "SC002", "SC003"), merged.Columns())
	// students alternate between the two schools
	assert.Equal(t, []string{"10", "11", "10"}, column(t, merged, "SC001")[:3])
}

func TestMerge_FirstSecondaryRowWins(t *testing.T) {
	student := testkit.StudentTable(dataset.Korea, testkit.KoreaStudents())
	merged, err := newMerger().Merge(student, testkit.TeacherTable(dataset.Korea), "tch")
	require.NoError(t, err)

	tc := column(t, merged, "TC001")
	assert.Equal(t, "100", tc[0])
	assert.Equal(t, "102", tc[1])
	assert.False(t, merged.HasColumn("CNTTCHID"))
}

func TestMerge_UnmatchedStudentsGetNulls(t *testing.T) {
	student := table(t, []string{"CNT", "CNTSCHID", "CNTSTUID", "ESCS"},
		[]string{"KOR", "1", "11", "0.5"},
		[]string{"KOR", "2", "12", "0.1"},
	)
	school := table(t, []string{"CNTRYID", "CNT", "CNTSCHID", "SC001", "SC002", "SC003"},
		[]string{"Korea", "KOR", "1", "5", "6", "7"},
	)
	merged, err := newMerger().Merge(student, school, "sch")
	require.NoError(t, err)

	assert.Equal(t, 2, merged.NumRows())
	assert.Equal(t, []string{"5", ""}, column(t, merged, "SC001"))
	assert.True(t, merged.Value(1, "SC003").IsNull())
}

func TestMerge_SkipsEmptySecondary(t *testing.T) {
	student := testkit.StudentTable(dataset.Korea, testkit.KoreaStudents())
	narrow := table(t, []string{"CNTRYID", "CNT", "CNTSCHID", "SC001"}, []string{"Korea", "KOR", "41000001", "1"})
	empty := table(t, []string{"CNTRYID", "CNT", "CNTSCHID", "SC001", "SC002", "SC003"})

	for name, secondary := range map[string]*dataset.Table{"nil": nil, "empty": empty, "narrow": narrow} {
		t.Run(name, func(t *testing.T) {
			merged, err := newMerger().Merge(student, secondary, "sch")
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrMissingCollaboratorData))
			assert.False(t, errors.IsFatal(err))
			assert.True(t, merged.Equal(student))
		})
	}
}

func TestMerge_RenamesCollidingAttribute(t *testing.T) {
	student := table(t, []string{"CNT", "CNTSCHID", "CNTSTUID", "SC001"}, []string{"KOR", "1", "11", "student"})
	school := table(t, []string{"CNTRYID", "CNT", "CNTSCHID", "SC001", "SC002", "SC003"},
		[]string{"Korea", "KOR", "1", "school", "6", "7"})

	merged, err := newMerger().Merge(student, school, "sch")
	require.NoError(t, err)
	assert.Equal(t, []string{"student"}, column(t, merged, "SC001"))
	assert.Equal(t, []string{"school"}, column(t, merged, "SC001_sch"))
}

func TestJoin_CollectsWarnings(t *testing.T) {
	src := dataset.Sources{
		Student: testkit.StudentTable(dataset.UnitedStates, testkit.USStudents()),
		School:  testkit.SchoolTable(dataset.UnitedStates),
	}
	joined, warnings, err := newMerger().Join(dataset.UnitedStates, src)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.True(t, stderrors.Is(warnings[0], errors.ErrMissingCollaboratorData))
	assert.Equal(t, src.Student.NumRows(), joined.NumRows())
	assert.True(t, joined.HasColumn("SC001"))
	assert.False(t, joined.HasColumn("TC001"))
}

func TestJoin_RequiresStudentData(t *testing.T) {
	_, _, err := newMerger().Join(dataset.Korea, dataset.Sources{})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidParameter))
}

func TestSkippedSources(t *testing.T) {
	m := newMerger()
	in := testkit.Input()
	assert.Empty(t, m.SkippedSources(in))

	src := in[dataset.UnitedStates]
	src.Teacher = nil
	in[dataset.UnitedStates] = src

	skipped := m.SkippedSources(in)
	assert.Equal(t, map[string]bool{"teacher": true}, skipped)
	assert.Equal(t, map[string]bool{"TC001": true, "TC002": true}, m.SourceColumns(in, skipped))
}
