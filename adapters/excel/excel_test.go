package excel

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/pipeline"
	"pisaresilience/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeCodebook(t *testing.T, dir string) string {
	t.Helper()
	rows := [][]interface{}{}
	for _, e := range testkit.Codebook().Entries() {
		rows = append(rows, []interface{}{e.Category, e.Database, e.VariableCode, e.Description})
	}
	w := NewResultWriter(dir, zap.NewNop())
	path, err := w.write("codebook.xlsx", []sheetData{{
		name:   "codebook",
		header: []interface{}{"category", "Database", "variable_code", "description"},
		rows:   rows,
	}})
	require.NoError(t, err)
	return path
}

func writeInput(t *testing.T, dir string, in dataset.Input, extra string) {
	t.Helper()
	w := NewResultWriter(dir, zap.NewNop())
	for _, c := range dataset.Countries {
		src := in[c]
		var sheets []sheetData
		for _, s := range []struct {
			name  string
			table *dataset.Table
		}{{SheetStudent, src.Student}, {SheetSchool, src.School}, {SheetTeacher, src.Teacher}} {
			if s.table == nil {
				continue
			}
			h := header(s.table)
			rows := tableRows(s.table)
			if s.name == SheetStudent && extra != "" {
				h = append(h, extra)
				for i := range rows {
					rows[i] = append(rows[i], "not in codebook")
				}
			}
			sheets = append(sheets, sheetData{name: s.name, header: h, rows: rows})
		}
		_, err := w.write(InputFile(c), sheets)
		require.NoError(t, err)
	}
}

func TestReadCodebook(t *testing.T) {
	path := writeCodebook(t, t.TempDir())
	cb, err := ReadCodebook(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 5, cb.IdentifierCount())
	assert.True(t, cb.Has("ESCS"))
	cat, ok := cb.Category("CNTSTUID")
	assert.True(t, ok)
	assert.Equal(t, dataset.CategoryIdentifier, cat)
	assert.Equal(t, "SCH", cb.Entries()[len(cb.Entries())-3].Database)
}

func TestReadCodebook_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebook.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,category\nESCS,predictor\n"), 0o644))
	_, err := ReadCodebook(path, nil)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
}

func TestInputLoader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testkit.Input()
	writeInput(t, dir, want, "ST999")

	got, err := NewInputLoader(dir, testkit.Codebook(), zap.NewNop()).Load()
	require.NoError(t, err)

	for _, c := range dataset.Countries {
		assert.False(t, got[c].Student.HasColumn("ST999"), "codebook restriction")
		assert.True(t, want[c].Student.Equal(got[c].Student), "%s student", c)
		assert.True(t, want[c].School.Equal(got[c].School), "%s school", c)
		assert.True(t, want[c].Teacher.Equal(got[c].Teacher), "%s teacher", c)
	}
}

func TestInputLoader_MissingTeacherSheet(t *testing.T) {
	dir := t.TempDir()
	in := testkit.Input()
	src := in[dataset.Korea]
	src.Teacher = nil
	in[dataset.Korea] = src
	writeInput(t, dir, in, "")

	got, err := NewInputLoader(dir, testkit.Codebook(), nil).Load()
	require.NoError(t, err)
	assert.Nil(t, got[dataset.Korea].Teacher)
	assert.NotNil(t, got[dataset.UnitedStates].Teacher)
}

func TestInputLoader_MissingFile(t *testing.T) {
	_, err := NewInputLoader(t.TempDir(), testkit.Codebook(), nil).Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeStorageError, errors.GetCode(err))
}

func TestReadTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.csv")
	require.NoError(t, os.WriteFile(path, []byte("CNT,ESCS,ST001\nKOR,0.5,NA\nUSA,,3\n"), 0o644))

	tbl, err := NewDataReader(path, nil).ReadTable("")
	require.NoError(t, err)
	assert.Equal(t, []string{"CNT", "ESCS", "ST001"}, tbl.Columns())
	assert.Equal(t, 2, tbl.NumRows())
	assert.True(t, tbl.Value(0, "ST001").IsNull())
	assert.True(t, tbl.Value(1, "ESCS").IsNull())
	assert.Equal(t, dataset.Number(3), tbl.Value(1, "ST001"))
}

func TestWriteVariants(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.NARowThreshold = 2
	p, err := pipeline.New(opts, testkit.Codebook(), nil)
	require.NoError(t, err)
	result, err := p.Run(testkit.Input())
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := NewResultWriter(dir, nil).WriteVariants(1, result.Final)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "preprocessing1.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"full", "sliced"}, f.GetSheetList())

	full, err := NewDataReader(path, nil).ReadTable(SheetFull)
	require.NoError(t, err)
	assert.True(t, result.Final[dataset.Full].Equal(full))

	rows, err := f.GetRows(SheetSliced)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.Equal(t, []string{"CNT", "CNTSCHID", "CNTSTUID", "resilient"}, rows[0][:4])
}

func TestWriteDescriptive(t *testing.T) {
	reports, err := pipeline.DescribeAll(dataset.Partition{
		dataset.Korea:        testkit.StudentTable(dataset.Korea, testkit.KoreaStudents()),
		dataset.UnitedStates: testkit.StudentTable(dataset.UnitedStates, testkit.USStudents()),
	})
	require.NoError(t, err)

	path, err := NewResultWriter(t.TempDir(), nil).WriteDescriptive(reports)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"full", "korea", "united states"}, f.GetSheetList())

	rows, err := f.GetRows("korea")
	require.NoError(t, err)
	require.Len(t, rows, len(testkit.StudentColumns)+1)
	assert.Equal(t, "column", rows[0][0])
	// ST001 is missing for one of ten Korean students
	assert.Equal(t, []string{"ST001", "9", "10"}, rows[8][:3])
	// text columns carry no summary
	assert.Len(t, rows[1], 3)
}
