package ports

import (
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/pipeline"
)

// ResultExporter persists the tables a run produces. Both methods return
// the written file's path.
type ResultExporter interface {
	WriteVariants(k int, final map[dataset.Variant]*dataset.Table) (string, error)
	WriteDescriptive(reports []pipeline.ColumnReport) (string, error)
}

// DiagnosticsWriter renders the optional diagnostics report of a run
type DiagnosticsWriter interface {
	Write(result *pipeline.Result) (string, error)
}
