package profiling

import (
	"math"

	"pisaresilience/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Summarize computes describe()-style statistics. StdDev is the sample
// standard deviation and is NaN for fewer than two values.
func Summarize(data []float64) (SummaryStats, error) {
	summary := SummaryStats{Count: len(data)}
	if len(data) == 0 {
		return summary, core.ErrEmptyDistribution
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}

	stdDev := math.NaN()
	if len(data) > 1 {
		if stdDev, err = stats.StandardDeviationSample(data); err != nil {
			return summary, err
		}
	}

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Q25, _ = Quantile(data, 0.25)
	summary.Median, _ = Quantile(data, 0.5)
	summary.Q75, _ = Quantile(data, 0.75)
	return summary, nil
}

// AnalyzeDistribution computes summary statistics plus shape markers.
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (DistributionMarkers, error) {
	markers := DistributionMarkers{}

	summary, err := Summarize(data)
	if err != nil {
		return markers, err
	}
	markers.Summary = summary

	popStdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return markers, err
	}

	markers.Distribution.Skewness = calculateSkewness(data, summary.Mean, popStdDev)
	markers.Distribution.Kurtosis = calculateKurtosis(data, summary.Mean, popStdDev)
	markers.Distribution.IsNormal, markers.Distribution.NormalityP = testNormality(data, summary.Mean, popStdDev)
	markers.Distribution.OutlierCount = detectOutliers(data, summary.Q25, summary.Q75)

	return markers, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// calculateKurtosis computes bias-corrected sample kurtosis (not excess)
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	excessKurtosis := sumFourthDeviations/n - 3

	correction := (n - 1) / ((n - 2) * (n - 3))
	excessKurtosis = excessKurtosis*correction + 6/(n+1)

	return excessKurtosis + 3
}

// testNormality is a skewness/kurtosis screen, not a Shapiro-Wilk test.
// It is only used for the diagnostics report.
func testNormality(data []float64, mean, stdDev float64) (isNormal bool, pValue float64) {
	if len(data) < 3 || stdDev == 0 {
		return false, 1.0
	}

	skewness := calculateSkewness(data, mean, stdDev)
	kurtosis := calculateKurtosis(data, mean, stdDev)

	testStat := math.Abs(skewness) + math.Abs(kurtosis-3)/2

	chiDist := distuv.ChiSquared{K: 2}
	pValue = 1 - chiDist.CDF(testStat*testStat)

	return pValue > 0.05, pValue
}

// detectOutliers counts values outside the 1.5*IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}
