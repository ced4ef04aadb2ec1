package pipeline

import (
	stderrors "errors"
	"testing"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/testkit"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCheckSources_ConsistentFixture(t *testing.T) {
	assert.NoError(t, NewSchemaChecker(zap.NewNop()).CheckSources(testkit.Input(), nil))
}

func TestCheckSources_SparseColumnDiffers(t *testing.T) {
	in := testkit.Input()
	specs := testkit.USStudents()
	for i := range specs {
		specs[i].Missing = append(specs[i].Missing, "ST002")
	}
	src := in[dataset.UnitedStates]
	src.Student = testkit.StudentTable(dataset.UnitedStates, specs)
	in[dataset.UnitedStates] = src

	err := NewSchemaChecker(zap.NewNop()).CheckSources(in, nil)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "student")
}

func TestCheckAligned(t *testing.T) {
	checker := NewSchemaChecker(zap.NewNop())
	same := dataset.Partition{
		dataset.Korea:        table(t, []string{"A", "B"}),
		dataset.UnitedStates: table(t, []string{"B", "A"}),
	}
	assert.NoError(t, checker.CheckAligned(same, "join", nil))

	differ := dataset.Partition{
		dataset.Korea:        table(t, []string{"A", "B"}),
		dataset.UnitedStates: table(t, []string{"A"}),
	}
	err := checker.CheckAligned(differ, "join", nil)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "[B]")

	assert.NoError(t, checker.CheckAligned(differ, "join", map[string]bool{"B": true}))
}

func TestCheckSources_SkipsSourceMissingForOneCountry(t *testing.T) {
	in := testkit.Input()
	sk := in[dataset.Korea]
	sk.School = table(t, []string{"CNTRYID", "CNT", "CNTSCHID", "SC001", "SC002", "SC003"},
		[]string{"Korea", "KOR", "41000001", "10", "20", ""},
		[]string{"Korea", "KOR", "41000002", "11", "21", ""},
	)
	in[dataset.Korea] = sk
	us := in[dataset.UnitedStates]
	us.School = nil
	in[dataset.UnitedStates] = us

	checker := NewSchemaChecker(zap.NewNop())
	err := checker.CheckSources(in, nil)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "school")
	assert.NoError(t, checker.CheckSources(in, map[string]bool{"school": true}))
}
