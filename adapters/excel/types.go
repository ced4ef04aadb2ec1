package excel

import (
	"fmt"

	"pisaresilience/domain/dataset"
)

// Sheet names of the per-country input workbooks.
const (
	SheetStudent = "stu"
	SheetSchool  = "sch"
	SheetTeacher = "tch"
)

// Sheet names of the exported workbooks.
const (
	SheetFull   = "full"
	SheetSliced = "sliced"
)

// DescriptiveFile is the workbook holding the column missingness reports.
const DescriptiveFile = "descriptive.xlsx"

// InputFile is the cleaned workbook of one country, e.g. cleanedData(SK).xlsx.
func InputFile(c dataset.Country) string {
	return fmt.Sprintf("cleanedData(%s).xlsx", c)
}

// PreprocessingFile is the labeled workbook of plausible-value index k.
func PreprocessingFile(k int) string {
	return fmt.Sprintf("preprocessing%d.xlsx", k)
}

// RawSheet is a sheet as read from disk: a header row and string cells.
type RawSheet struct {
	Headers []string
	Rows    [][]string
}
