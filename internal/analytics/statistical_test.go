package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/database"
)

func TestAnalyzeStatisticsFlagsOutlier(t *testing.T) {
	result := makeResult(
		[]string{"amount"},
		[][]database.Value{
			{float64(1)}, {float64(2)}, {float64(3)}, {float64(4)}, {float64(5)}, {float64(100)},
		},
	)

	summary := analyzeStatistics(buildFrame(result), 1.5)

	outliers, ok := summary.Outliers["amount"]
	require.True(t, ok)
	assert.Equal(t, 1, outliers.Count)
	assert.Equal(t, []float64{100}, outliers.Values)
	assert.InDelta(t, 100.0/6.0, outliers.Percentage, 1e-6)
}

func TestAnalyzeStatisticsNoOutliers(t *testing.T) {
	result := makeResult(
		[]string{"amount"},
		[][]database.Value{
			{float64(10)}, {float64(11)}, {float64(12)}, {float64(13)},
		},
	)

	summary := analyzeStatistics(buildFrame(result), 1.5)

	outliers := summary.Outliers["amount"]
	assert.Equal(t, 0, outliers.Count)
	assert.Empty(t, outliers.Values)
}

func TestAnalyzeStatisticsConfidenceInterval(t *testing.T) {
	result := makeResult(
		[]string{"amount"},
		[][]database.Value{
			{float64(10)}, {float64(12)}, {float64(14)}, {float64(16)}, {float64(18)},
		},
	)

	summary := analyzeStatistics(buildFrame(result), 1.5)

	ci, ok := summary.ConfidenceIntervals["amount"]
	require.True(t, ok)
	assert.InDelta(t, 14, ci.Mean, 1e-9)
	assert.Equal(t, 0.95, ci.ConfidenceLevel)
	assert.Less(t, ci.LowerBound, ci.Mean)
	assert.Greater(t, ci.UpperBound, ci.Mean)
	// scipy reports (10.07, 17.93) for this sample.
	assert.InDelta(t, 10.07, ci.LowerBound, 0.05)
	assert.InDelta(t, 17.93, ci.UpperBound, 0.05)
}

func TestAnalyzeStatisticsSkipsDegenerateColumns(t *testing.T) {
	result := makeResult(
		[]string{"constant", "tiny"},
		[][]database.Value{
			{float64(5), float64(1)},
			{float64(5), float64(2)},
			{float64(5), nil},
			{float64(5), nil},
		},
	)

	summary := analyzeStatistics(buildFrame(result), 1.5)

	// Constant columns have a degenerate normality statistic.
	_, hasNormality := summary.NormalityTests["constant"]
	assert.False(t, hasNormality)

	// Two values are enough for a CI but not for outlier detection.
	_, hasOutliers := summary.Outliers["tiny"]
	assert.False(t, hasOutliers)
	_, hasCI := summary.ConfidenceIntervals["tiny"]
	assert.True(t, hasCI)
}

func TestTestNormality(t *testing.T) {
	// Symmetric, light-tailed sample: JB should not reject.
	data := []float64{-2, -1, -0.5, 0, 0.5, 1, 2}

	test, ok := testNormality(data)
	require.True(t, ok)
	assert.Equal(t, "jarque-bera", test.Test)
	assert.Greater(t, test.PValue, 0.05)
	assert.True(t, test.IsNormal)
}
