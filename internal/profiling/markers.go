package profiling

// SummaryStats mirrors a describe() row for one numeric sample.
type SummaryStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// DistributionStats describes distribution shape.
type DistributionStats struct {
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"`
	IsNormal     bool    `json:"is_normal"`
	NormalityP   float64 `json:"normality_p"`
	OutlierCount int     `json:"outlier_count"`
}

// DistributionMarkers bundles summary and shape statistics for one sample.
type DistributionMarkers struct {
	Summary      SummaryStats      `json:"summary"`
	Distribution DistributionStats `json:"distribution"`
}
