package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *zap.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *zap.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger.Named("reader")}
}

// Sheets lists the sheet names of an Excel file. A CSV file has none.
func (r *DataReader) Sheets() ([]string, error) {
	if r.fileType == "csv" {
		return nil, nil
	}
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.StorageError("failed to open Excel file "+r.filePath, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadSheet reads one sheet (ignored for CSV) as raw strings.
func (r *DataReader) ReadSheet(sheet string) (*RawSheet, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.StorageError(strings.ToUpper(r.fileType)+" file not found: "+r.filePath, err)
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows(sheet)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Newf(errors.CodeInsufficientData, "%s sheet %q has no header row", r.filePath, sheet)
	}

	raw := &RawSheet{Headers: make([]string, len(rows[0]))}
	for i, h := range rows[0] {
		raw.Headers[i] = strings.TrimSpace(h)
	}
	for _, row := range rows[1:] {
		cells := make([]string, len(raw.Headers))
		// excelize trims trailing empty cells
		copy(cells, row)
		raw.Rows = append(raw.Rows, cells)
	}

	r.logger.Debug("sheet read",
		zap.String("file", r.filePath),
		zap.String("sheet", sheet),
		zap.Int("columns", len(raw.Headers)),
		zap.Int("rows", len(raw.Rows)),
		zap.Duration("took", time.Since(start)))
	return raw, nil
}

// ReadTable reads one sheet and converts every cell with dataset.ParseValue.
func (r *DataReader) ReadTable(sheet string) (*dataset.Table, error) {
	raw, err := r.ReadSheet(sheet)
	if err != nil {
		return nil, err
	}
	t, err := dataset.NewTable(raw.Headers...)
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchemaMismatch, err)
	}
	values := make([]dataset.Value, len(raw.Headers))
	for _, row := range raw.Rows {
		for i, cell := range row {
			values[i] = dataset.ParseValue(cell)
		}
		if err := t.AppendRow(values...); err != nil {
			return nil, errors.Wrapf(err, "read %s", r.filePath)
		}
	}
	return t, nil
}

func (r *DataReader) readExcelRows(sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.StorageError("failed to open Excel file "+r.filePath, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.StorageError("failed to read sheet "+sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.StorageError("failed to open CSV file "+r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.StorageError("failed to read CSV file "+r.filePath, err)
	}
	return rows, nil
}
