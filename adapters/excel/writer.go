package excel

import (
	"math"
	"os"
	"path/filepath"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/pipeline"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// descriptiveSheets maps report views to the sheet names of descriptive.xlsx.
var descriptiveSheets = map[string]string{
	pipeline.ViewFull:            "full",
	string(dataset.Korea):        "korea",
	string(dataset.UnitedStates): "united states",
}

// DescriptiveHeader is the header row of every descriptive.xlsx sheet.
var DescriptiveHeader = []interface{}{"column", "count", "na_ratio", "mean", "std", "min", "25%", "50%", "75%", "max"}

// ResultWriter exports pipeline results as Excel workbooks.
type ResultWriter struct {
	dir    string
	logger *zap.Logger
}

func NewResultWriter(dir string, logger *zap.Logger) *ResultWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultWriter{dir: dir, logger: logger.Named("writer")}
}

// WriteVariants writes preprocessing<k>.xlsx with the full and sliced sheets
// and returns its path.
func (w *ResultWriter) WriteVariants(k int, final map[dataset.Variant]*dataset.Table) (string, error) {
	sheets := make([]sheetData, 0, len(dataset.Variants))
	for _, v := range dataset.Variants {
		t, ok := final[v]
		if !ok {
			return "", errors.Newf(errors.CodeInvalidParameter, "no %s table to export", v)
		}
		sheets = append(sheets, sheetData{name: string(v), header: header(t), rows: tableRows(t)})
	}
	return w.write(PreprocessingFile(k), sheets)
}

// WriteDescriptive writes descriptive.xlsx with one sheet per report view.
func (w *ResultWriter) WriteDescriptive(reports []pipeline.ColumnReport) (string, error) {
	sheets := make([]sheetData, 0, len(reports))
	for _, r := range reports {
		name, ok := descriptiveSheets[r.View]
		if !ok {
			name = r.View
		}
		rows := make([][]interface{}, 0, len(r.Profiles))
		for _, p := range r.Profiles {
			row := []interface{}{p.Column, p.Count, cell(p.NARatio)}
			if p.Numeric {
				s := p.Summary
				row = append(row, cell(s.Mean), cell(s.StdDev), cell(s.Min), cell(s.Q25), cell(s.Median), cell(s.Q75), cell(s.Max))
			}
			rows = append(rows, row)
		}
		sheets = append(sheets, sheetData{name: name, header: DescriptiveHeader, rows: rows})
	}
	return w.write(DescriptiveFile, sheets)
}

type sheetData struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

func (w *ResultWriter) write(file string, sheets []sheetData) (string, error) {
	if len(sheets) == 0 {
		return "", errors.InvalidParameter("nothing to write to " + file)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.StorageError("create result directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return "", errors.StorageError("rename sheet "+s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return "", errors.StorageError("create sheet "+s.name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return "", errors.StorageError("write sheet "+s.name, err)
		}
	}

	path := filepath.Join(w.dir, file)
	if err := f.SaveAs(path); err != nil {
		return "", errors.StorageError("save "+path, err)
	}
	w.logger.Info("workbook written", zap.String("path", path), zap.Int("sheets", len(sheets)))
	return path, nil
}

func writeSheet(f *excelize.File, s sheetData) error {
	sw, err := f.NewStreamWriter(s.name)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", s.header); err != nil {
		return err
	}
	for i, row := range s.rows {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(ref, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func header(t *dataset.Table) []interface{} {
	cols := t.Columns()
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func tableRows(t *dataset.Table) [][]interface{} {
	rows := make([][]interface{}, t.NumRows())
	for r := range rows {
		values := t.Row(r)
		row := make([]interface{}, len(values))
		for i, v := range values {
			switch v.Kind() {
			case dataset.KindNumber:
				f, _ := v.Float()
				row[i] = f
			case dataset.KindText:
				row[i] = v.String()
			}
		}
		rows[r] = row
	}
	return rows
}

// cell leaves NaN and infinities empty.
func cell(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
