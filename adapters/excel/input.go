package excel

import (
	"path/filepath"
	"slices"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
)

// InputLoader reads the cleaned per-country workbooks from a directory.
type InputLoader struct {
	dir      string
	codebook *dataset.Codebook
	logger   *zap.Logger
}

func NewInputLoader(dir string, codebook *dataset.Codebook, logger *zap.Logger) *InputLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InputLoader{dir: dir, codebook: codebook, logger: logger.Named("input")}
}

// Load reads the stu, sch and tch sheets of every country and keeps only the
// codebook variables. A missing student sheet is an error; a missing school
// or teacher sheet leaves that source nil, which the merge reports as a
// warning.
func (l *InputLoader) Load() (dataset.Input, error) {
	in := make(dataset.Input, len(dataset.Countries))
	for _, c := range dataset.Countries {
		src, err := l.loadCountry(c)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", c)
		}
		in[c] = src
	}
	return in, nil
}

func (l *InputLoader) loadCountry(c dataset.Country) (dataset.Sources, error) {
	path := filepath.Join(l.dir, InputFile(c))
	reader := NewDataReader(path, l.logger)
	sheets, err := reader.Sheets()
	if err != nil {
		return dataset.Sources{}, err
	}

	read := func(sheet string, required bool) (*dataset.Table, error) {
		if !slices.Contains(sheets, sheet) {
			if required {
				return nil, errors.Newf(errors.CodeSchemaMismatch, "%s has no %s sheet", path, sheet)
			}
			l.logger.Warn("sheet not found", zap.String("file", path), zap.String("sheet", sheet))
			return nil, nil
		}
		t, err := reader.ReadTable(sheet)
		if err != nil {
			return nil, err
		}
		return l.codebook.Restrict(t), nil
	}

	var src dataset.Sources
	if src.Student, err = read(SheetStudent, true); err != nil {
		return dataset.Sources{}, err
	}
	if src.School, err = read(SheetSchool, false); err != nil {
		return dataset.Sources{}, err
	}
	if src.Teacher, err = read(SheetTeacher, false); err != nil {
		return dataset.Sources{}, err
	}

	l.logger.Info("country loaded",
		zap.String("country", string(c)),
		zap.Int("students", src.Student.NumRows()),
		zap.Int("student_columns", src.Student.NumColumns()))
	return src, nil
}
