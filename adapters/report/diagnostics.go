// Package report renders the diagnostics of a pipeline run as an HTML page.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/pipeline"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"
)

// DiagnosticsFile is the report name for plausible-value index k.
func DiagnosticsFile(k int) string {
	return fmt.Sprintf("diagnostics%d.html", k)
}

// DiagnosticsRenderer writes run diagnostics as Markdown converted to HTML.
type DiagnosticsRenderer struct {
	dir    string
	logger *zap.Logger
}

func NewDiagnosticsRenderer(dir string, logger *zap.Logger) *DiagnosticsRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticsRenderer{dir: dir, logger: logger.Named("report")}
}

// Markdown builds the report body. Results without diagnostics still get the
// threshold and summary sections.
func Markdown(result *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Academic resilience diagnostics, PV%dREAD\n\n", result.PlausibleValueIndex)
	fmt.Fprintf(&b, "Run `%s`, NA row threshold %d.\n\n", result.RunID, result.Options.NARowThreshold)

	b.WriteString("## Thresholds\n\n| Country | Academic score | ESCS (25th percentile) |\n|---|---|---|\n")
	for _, c := range dataset.Countries {
		info, ok := result.Thresholds[c]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", c.Name(), info.AcademicScore, num(info.ESCSScore))
	}

	b.WriteString("\n## Resilient students\n\n| Variant | Country | Resilient | Total | Ratio (%) |\n|---|---|---|---|---|\n")
	for _, rc := range result.Summary {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n", rc.Variant, rc.Country.Name(), rc.Resilient, rc.Total, num(rc.Ratio))
	}

	if len(result.RowFilter) > 0 {
		b.WriteString("\n## Row filter\n\n| View | Rows | Dropped |\n|---|---|---|\n")
		for _, v := range result.RowFilter {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", v.View, v.Rows, v.Dropped)
		}
	}

	d := result.Diagnostics
	if d == nil {
		return b.String()
	}

	b.WriteString("\n## NA ratio per student\n")
	for _, h := range d.NAHistograms {
		fmt.Fprintf(&b, "\n### %s\n\n| Bin (%%) | Students |\n|---|---|\n", h.View)
		for i, count := range h.Histogram.Counts {
			lo := h.Histogram.Dividers[i]
			hi := math.Min(h.Histogram.Dividers[i+1], 100)
			fmt.Fprintf(&b, "| %s to %s | %d |\n", num(lo), num(hi), int(count))
		}
	}

	b.WriteString("\n## Distributions\n\n| Variant | Country | Column | Count | Mean | Std | Min | Median | Max | Skewness | Threshold |\n|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, r := range d.Distributions {
		s := r.Markers.Summary
		threshold := "-"
		if r.HasThreshold {
			threshold = num(r.Threshold)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Variant, r.Country.Name(), r.Column, s.Count,
			num(s.Mean), num(s.StdDev), num(s.Min), num(s.Median), num(s.Max),
			num(r.Markers.Distribution.Skewness), threshold)
	}
	return b.String()
}

// HTML renders the report as a complete HTML page.
func HTML(result *pipeline.Result) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("PV%dREAD diagnostics", result.PlausibleValueIndex),
	})
	return markdown.ToHTML([]byte(Markdown(result)), p, renderer)
}

// Write saves the HTML report under the renderer's directory and returns its path.
func (r *DiagnosticsRenderer) Write(result *pipeline.Result) (string, error) {
	if result == nil {
		return "", errors.InvalidParameter("no result to report")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", errors.StorageError("create report directory", err)
	}
	path := filepath.Join(r.dir, DiagnosticsFile(result.PlausibleValueIndex))
	if err := os.WriteFile(path, HTML(result), 0o644); err != nil {
		return "", errors.StorageError("write "+path, err)
	}
	r.logger.Info("diagnostics written", zap.String("path", path))
	return path, nil
}

func num(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NaN"
	}
	return fmt.Sprintf("%.3g", f)
}
