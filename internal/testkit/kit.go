// Package testkit provides small PISA-shaped fixtures for tests.
package testkit

import (
	"fmt"

	"pisaresilience/domain/dataset"
)

// Identifier variables of the fixture codebook.
var fixtureIdentifiers = []string{"CNTRYID", "CNT", "CNTSCHID", "CNTSTUID", "CNTTCHID"}

// Predictor variables of the fixture codebook by source database.
var fixtureVariables = map[string][]string{
	"STU": {"ESCS", "PV1READ", "PV2READ", "ST001", "ST002"},
	"SCH": {"SC001", "SC002", "SC003"},
	"TCH": {"TC001", "TC002"},
}

// Codebook returns the codebook matching the fixture tables.
func Codebook() *dataset.Codebook {
	var entries []dataset.CodebookEntry
	for _, code := range fixtureIdentifiers {
		entries = append(entries, dataset.CodebookEntry{
			VariableCode: code,
			Category:     dataset.CategoryIdentifier,
			Database:     "STU",
			Description:  code + " identifier",
		})
	}
	for _, db := range []string{"STU", "SCH", "TCH"} {
		for _, code := range fixtureVariables[db] {
			entries = append(entries, dataset.CodebookEntry{
				VariableCode: code,
				Category:     "predictor",
				Database:     db,
				Description:  code,
			})
		}
	}
	return dataset.NewCodebook(entries)
}

// StudentSpec is one fixture student. NaN-free: use Missing to null a field.
type StudentSpec struct {
	ESCS    float64
	PV1READ float64
	// Missing lists the student columns to leave null.
	Missing []string
}

// StudentColumns is the column order of fixture student tables.
var StudentColumns = []string{"CNTRYID", "CNT", "CNTSCHID", "CNTSTUID", "ESCS", "PV1READ", "PV2READ", "ST001", "ST002"}

type countryMeta struct {
	name     string
	code     string
	schoolID int
}

var meta = map[dataset.Country]countryMeta{
	dataset.Korea:        {name: "Korea", code: "KOR", schoolID: 41000001},
	dataset.UnitedStates: {name: "United States", code: "USA", schoolID: 84000001},
}

// KoreaStudents has ESCS 25th percentile -0.875 and exactly three students
// above 480 with ESCS below it. The sixth student has two missing answers.
func KoreaStudents() []StudentSpec {
	return []StudentSpec{
		{ESCS: -2.0, PV1READ: 500},
		{ESCS: -1.5, PV1READ: 520},
		{ESCS: -1.0, PV1READ: 490},
		{ESCS: -0.5, PV1READ: 600},
		{ESCS: 0.0, PV1READ: 470},
		{ESCS: 0.5, PV1READ: 550, Missing: []string{"ST001", "ST002"}},
		{ESCS: 1.0, PV1READ: 300},
		{ESCS: 1.5, PV1READ: 610},
		{ESCS: 2.0, PV1READ: 480},
		{ESCS: 2.5, PV1READ: 700},
	}
}

// USStudents loses its last student to the NA filter (three missing
// answers). The remaining nine have ESCS 25th percentile -0.9; two students
// lie strictly below it with scores above 480, and one sits exactly on it.
func USStudents() []StudentSpec {
	return []StudentSpec{
		{ESCS: -1.8, PV1READ: 481},
		{ESCS: -1.2, PV1READ: 530},
		{ESCS: -0.9, PV1READ: 495},
		{ESCS: -0.2, PV1READ: 520},
		{ESCS: 0.3, PV1READ: 450},
		{ESCS: 0.8, PV1READ: 610},
		{ESCS: 1.1, PV1READ: 380},
		{ESCS: 1.6, PV1READ: 500},
		{ESCS: 2.1, PV1READ: 560},
		{ESCS: 0.1, PV1READ: 650, Missing: []string{"ESCS", "PV1READ", "ST001"}},
	}
}

// StudentTable builds a student table for country from specs. Students are
// spread over two schools.
func StudentTable(country dataset.Country, specs []StudentSpec) *dataset.Table {
	m := meta[country]
	t, err := dataset.NewTable(StudentColumns...)
	if err != nil {
		panic(err)
	}
	for i, s := range specs {
		values := map[string]dataset.Value{
			"CNTRYID":  dataset.Text(m.name),
			"CNT":      dataset.Text(m.code),
			"CNTSCHID": dataset.Number(float64(m.schoolID + i%2)),
			"CNTSTUID": dataset.Number(float64(m.schoolID*100 + i + 1)),
			"ESCS":     dataset.Number(s.ESCS),
			"PV1READ":  dataset.Number(s.PV1READ),
			"PV2READ":  dataset.Number(400),
			"ST001":    dataset.Number(1),
			"ST002":    dataset.Number(float64(i % 4)),
		}
		for _, miss := range s.Missing {
			values[miss] = dataset.Null()
		}
		row := make([]dataset.Value, len(StudentColumns))
		for j, c := range StudentColumns {
			row[j] = values[c]
		}
		if err := t.AppendRow(row...); err != nil {
			panic(err)
		}
	}
	return t
}

// SchoolTable has one row per fixture school.
func SchoolTable(country dataset.Country) *dataset.Table {
	m := meta[country]
	t, err := dataset.NewTable("CNTRYID", "CNT", "CNTSCHID", "SC001", "SC002", "SC003")
	if err != nil {
		panic(err)
	}
	for s := 0; s < 2; s++ {
		must(t.AppendRow(
			dataset.Text(m.name), dataset.Text(m.code), dataset.Number(float64(m.schoolID+s)),
			dataset.Number(float64(10+s)), dataset.Number(float64(20+s)), dataset.Text(fmt.Sprintf("type-%d", s)),
		))
	}
	return t
}

// TeacherTable has two teachers in the first school and one in the second.
func TeacherTable(country dataset.Country) *dataset.Table {
	m := meta[country]
	t, err := dataset.NewTable("CNTRYID", "CNT", "CNTSCHID", "CNTTCHID", "TC001", "TC002")
	if err != nil {
		panic(err)
	}
	for i, school := range []int{0, 0, 1} {
		must(t.AppendRow(
			dataset.Text(m.name), dataset.Text(m.code), dataset.Number(float64(m.schoolID+school)),
			dataset.Number(float64(m.schoolID*10+i)), dataset.Number(float64(100+i)), dataset.Number(float64(200+i)),
		))
	}
	return t
}

// Input returns the two-country fixture with all three sources.
func Input() dataset.Input {
	return dataset.Input{
		dataset.Korea: {
			Student: StudentTable(dataset.Korea, KoreaStudents()),
			School:  SchoolTable(dataset.Korea),
			Teacher: TeacherTable(dataset.Korea),
		},
		dataset.UnitedStates: {
			Student: StudentTable(dataset.UnitedStates, USStudents()),
			School:  SchoolTable(dataset.UnitedStates),
			Teacher: TeacherTable(dataset.UnitedStates),
		},
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
