package excel

import (
	"strings"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
)

// Codebook header names, matched case-insensitively.
const (
	codebookVariable    = "variable_code"
	codebookCategory    = "category"
	codebookDatabase    = "database"
	codebookDescription = "description"
)

// ReadCodebook loads the codebook from the first sheet of path (or a CSV).
// Rows without a variable code are skipped.
func ReadCodebook(path string, logger *zap.Logger) (*dataset.Codebook, error) {
	reader := NewDataReader(path, logger)
	sheet := ""
	sheets, err := reader.Sheets()
	if err != nil {
		return nil, err
	}
	if len(sheets) > 0 {
		sheet = sheets[0]
	}
	raw, err := reader.ReadSheet(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "read codebook")
	}

	pos := map[string]int{}
	for i, h := range raw.Headers {
		pos[strings.ToLower(h)] = i
	}
	for _, required := range []string{codebookVariable, codebookCategory} {
		if _, ok := pos[required]; !ok {
			return nil, errors.Newf(errors.CodeSchemaMismatch, "codebook %s has no %s column", path, required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := pos[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []dataset.CodebookEntry
	for _, row := range raw.Rows {
		code := cell(row, codebookVariable)
		if code == "" {
			continue
		}
		entries = append(entries, dataset.CodebookEntry{
			VariableCode: code,
			Category:     cell(row, codebookCategory),
			Database:     cell(row, codebookDatabase),
			Description:  cell(row, codebookDescription),
		})
	}
	if len(entries) == 0 {
		return nil, errors.Newf(errors.CodeInsufficientData, "codebook %s is empty", path)
	}
	return dataset.NewCodebook(entries), nil
}
