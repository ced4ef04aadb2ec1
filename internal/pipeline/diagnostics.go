package pipeline

import (
	"pisaresilience/domain/dataset"
	"pisaresilience/internal/profiling"
)

// HistogramBins is the number of NA-ratio histogram bins.
const HistogramBins = 10

// NAHistogram is the distribution of per-row NA ratios for one view.
type NAHistogram struct {
	View      string              `json:"view"`
	Histogram profiling.Histogram `json:"histogram"`
}

// DistributionReport summarizes one score column of one country and variant,
// with the cutoff drawn against it when one applies.
type DistributionReport struct {
	Variant      dataset.Variant               `json:"variant"`
	Country      dataset.Country               `json:"country"`
	Column       string                        `json:"column"`
	Markers      profiling.DistributionMarkers `json:"markers"`
	Threshold    float64                       `json:"threshold"`
	HasThreshold bool                          `json:"has_threshold"`
}

// Diagnostics is the optional statistics report of a run.
type Diagnostics struct {
	NAHistograms  []NAHistogram        `json:"na_histograms"`
	Distributions []DistributionReport `json:"distributions"`
}

// BuildDiagnostics summarizes row NA ratios and the AcademicScore and ESCS
// distributions of the labeled variants. The ESCS cutoff is only reported
// for the full variant; the sliced population lies entirely below it.
func BuildDiagnostics(views []ViewStats, labeled map[dataset.Variant]dataset.Partition, thresholds dataset.Thresholds) *Diagnostics {
	d := &Diagnostics{}
	for _, v := range views {
		d.NAHistograms = append(d.NAHistograms, NAHistogram{
			View:      v.View,
			Histogram: profiling.PercentHistogram(v.NARatios, HistogramBins),
		})
	}

	analyzer := profiling.NewDistributionAnalyzer()
	for _, variant := range dataset.Variants {
		p := labeled[variant]
		for _, c := range dataset.Countries {
			t := p[c]
			if t == nil {
				continue
			}
			info := thresholds[c]
			for _, col := range []string{dataset.ColAcademicScore, dataset.ColESCS} {
				values := castable(t, col)
				if len(values) == 0 {
					continue
				}
				markers, err := analyzer.AnalyzeDistribution(values)
				if err != nil {
					continue
				}
				report := DistributionReport{Variant: variant, Country: c, Column: col, Markers: markers}
				switch {
				case col == dataset.ColAcademicScore:
					report.Threshold, report.HasThreshold = float64(info.AcademicScore), true
				case variant == dataset.Full:
					report.Threshold, report.HasThreshold = info.ESCSScore, true
				}
				d.Distributions = append(d.Distributions, report)
			}
		}
	}
	return d
}

func castable(t *dataset.Table, column string) []float64 {
	values, err := t.Column(column)
	if err != nil {
		return nil
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}
