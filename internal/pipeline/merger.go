package pipeline

import (
	"fmt"
	"strings"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
)

// keySeparator joins identifier values into one lookup key.
const keySeparator = "\x1f"

// collaborator is a secondary source merged into the student table.
type collaborator struct {
	name   string
	suffix string
	pick   func(dataset.Sources) *dataset.Table
}

var collaborators = []collaborator{
	{name: "school", suffix: "sch", pick: func(src dataset.Sources) *dataset.Table { return src.School }},
	{name: "teacher", suffix: "tch", pick: func(src dataset.Sources) *dataset.Table { return src.Teacher }},
}

// DemographicMerger attaches school and teacher attributes to student rows.
type DemographicMerger struct {
	identifiers map[string]bool
	idCount     int
	logger      *zap.Logger
}

// NewDemographicMerger reads the identifier variables from the codebook.
func NewDemographicMerger(codebook *dataset.Codebook, logger *zap.Logger) *DemographicMerger {
	ids := make(map[string]bool)
	for _, code := range codebook.Identifiers() {
		ids[code] = true
	}
	for _, code := range dataset.IdentifierColumns {
		ids[code] = true
	}
	return &DemographicMerger{
		identifiers: ids,
		idCount:     codebook.IdentifierCount(),
		logger:      logger.Named("merger"),
	}
}

// Merge returns a copy of student extended with the non-identifier columns
// of secondary, matched on the identifier columns both tables share.
// Students without a match get nulls. When several secondary rows share a
// key the first one is used.
//
// A nil or empty secondary table, or one with no more columns than the
// codebook has identifiers, is skipped: the copy is returned together with a
// MissingCollaboratorData error, which callers treat as a warning.
func (m *DemographicMerger) Merge(student, secondary *dataset.Table, source string) (*dataset.Table, error) {
	if !m.Usable(secondary) {
		m.logger.Warn("secondary data is empty, merge skipped", zap.String("source", source))
		return student.Clone(), errors.MissingCollaboratorData(source + " data is empty")
	}

	var keys, attrs []string
	for _, c := range secondary.Columns() {
		switch {
		case m.identifiers[c] && student.HasColumn(c):
			keys = append(keys, c)
		case m.identifiers[c]:
			// identifier of the secondary level only, e.g. a teacher ID
		default:
			attrs = append(attrs, c)
		}
	}
	if len(keys) == 0 {
		return nil, errors.SchemaMismatch(source + " data shares no identifier column with student data")
	}

	lookup := make(map[string]int, secondary.NumRows())
	duplicates := 0
	for i := 0; i < secondary.NumRows(); i++ {
		k, ok := rowKey(secondary, i, keys)
		if !ok {
			continue
		}
		if _, seen := lookup[k]; seen {
			duplicates++
			continue
		}
		lookup[k] = i
	}

	columns := student.Columns()
	for _, a := range attrs {
		name := a
		if student.HasColumn(a) {
			name = a + "_" + source
		}
		columns = append(columns, name)
	}
	out, err := dataset.NewTable(columns...)
	if err != nil {
		return nil, errors.Wrapf(err, "merge %s", source)
	}

	matched := 0
	for i := 0; i < student.NumRows(); i++ {
		row := student.Row(i)
		j, ok := -1, false
		if k, valid := rowKey(student, i, keys); valid {
			j, ok = lookup[k]
		}
		if ok {
			matched++
		}
		for _, a := range attrs {
			if ok {
				row = append(row, secondary.Value(j, a))
			} else {
				row = append(row, dataset.Null())
			}
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, errors.Wrapf(err, "merge %s", source)
		}
	}

	if out.NumRows() != student.NumRows() {
		return nil, errors.InvariantViolation(fmt.Sprintf(
			"merge %s changed student row count from %d to %d", source, student.NumRows(), out.NumRows()))
	}

	m.logger.Debug("merged secondary data",
		zap.String("source", source),
		zap.Strings("keys", keys),
		zap.Int("attributes", len(attrs)),
		zap.Int("matched", matched),
		zap.Int("unmatched", student.NumRows()-matched),
		zap.Int("duplicate_keys", duplicates))
	return out, nil
}

// Join merges school then teacher data into the student table of one country.
// Skipped merges are returned as warnings.
func (m *DemographicMerger) Join(country dataset.Country, src dataset.Sources) (*dataset.Table, []error, error) {
	if src.Student == nil {
		return nil, nil, errors.Newf(errors.CodeInvalidParameter, "%s has no student data", country)
	}
	m.logger.Debug("join",
		zap.String("country", string(country)),
		zap.Ints("student_shape", shape(src.Student)),
		zap.Ints("school_shape", shape(src.School)),
		zap.Ints("teacher_shape", shape(src.Teacher)))

	var warnings []error
	joined := src.Student
	for _, step := range collaborators {
		next, err := m.Merge(joined, step.pick(src), step.suffix)
		if errors.IsFatal(err) {
			return nil, nil, errors.Wrapf(err, "join %s", country)
		}
		if err != nil {
			warnings = append(warnings, errors.Wrapf(err, "%s", country))
		}
		joined = next
	}

	m.logger.Debug("joined", zap.String("country", string(country)),
		zap.Ints("before", shape(src.Student)), zap.Ints("after", shape(joined)))
	return joined, warnings, nil
}

// Usable reports whether a secondary table carries anything to merge.
func (m *DemographicMerger) Usable(t *dataset.Table) bool {
	return t != nil && t.NumRows() > 0 && t.NumColumns() > m.idCount
}

// SkippedSources names the collaborators that cannot be merged for at least
// one country.
func (m *DemographicMerger) SkippedSources(in dataset.Input) map[string]bool {
	skipped := make(map[string]bool)
	for _, col := range collaborators {
		for _, c := range dataset.Countries {
			if !m.Usable(col.pick(in[c])) {
				skipped[col.name] = true
			}
		}
	}
	return skipped
}

// SourceColumns lists the columns the skipped collaborators would add to a
// joined table in any country, including suffixed names for clashes.
func (m *DemographicMerger) SourceColumns(in dataset.Input, skipped map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, col := range collaborators {
		if !skipped[col.name] {
			continue
		}
		for _, c := range dataset.Countries {
			t := col.pick(in[c])
			if t == nil {
				continue
			}
			student := in[c].Student
			for _, name := range t.Columns() {
				if m.identifiers[name] {
					continue
				}
				if student != nil && student.HasColumn(name) {
					out[name+"_"+col.suffix] = true
					continue
				}
				out[name] = true
			}
		}
	}
	return out
}

func rowKey(t *dataset.Table, row int, keys []string) (string, bool) {
	parts := make([]string, len(keys))
	for i, k := range keys {
		v := t.Value(row, k)
		if v.IsNull() {
			return "", false
		}
		parts[i] = v.String()
	}
	return strings.Join(parts, keySeparator), true
}

func shape(t *dataset.Table) []int {
	if t == nil {
		return []int{0, 0}
	}
	return []int{t.NumRows(), t.NumColumns()}
}
