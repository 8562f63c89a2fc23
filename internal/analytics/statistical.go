package analytics

import (
	"math"

	"github.com/bankiq/backend/internal/analytics/stat"
)

// normalitySampleCap bounds the sample size fed to the normality test;
// larger columns are down-sampled.
const normalitySampleCap = 5000

// analyzeStatistics runs outlier detection, a normality test and a 95%
// confidence interval for every numeric column. Per-column test failures
// (degenerate samples) are swallowed: the column is simply absent from the
// affected map.
func analyzeStatistics(f *frame, iqrMultiplier float64) *StatisticalSummary {
	summary := &StatisticalSummary{
		Outliers:            make(map[string]OutlierSummary),
		NormalityTests:      make(map[string]NormalityTest),
		ConfidenceIntervals: make(map[string]ConfidenceInterval),
	}

	for _, col := range f.columnsOfKind(KindNumeric) {
		data := col.numbers()

		if len(data) >= 3 {
			summary.Outliers[col.name] = detectOutliers(data, iqrMultiplier)

			if test, ok := testNormality(data); ok {
				summary.NormalityTests[col.name] = test
			}
		}

		if len(data) >= 2 {
			summary.ConfidenceIntervals[col.name] = confidenceInterval(data)
		}
	}

	return summary
}

// detectOutliers applies the IQR fence: values outside
// [Q1 - m*IQR, Q3 + m*IQR] are flagged. Up to the first 10 offending values
// are reported.
func detectOutliers(data []float64, multiplier float64) OutlierSummary {
	q1 := stat.Quantile(data, 0.25)
	q3 := stat.Quantile(data, 0.75)
	fence := multiplier * (q3 - q1)
	lower := q1 - fence
	upper := q3 + fence

	summary := OutlierSummary{Values: []float64{}}
	for _, v := range data {
		if v < lower || v > upper {
			summary.Count++
			if len(summary.Values) < 10 {
				summary.Values = append(summary.Values, v)
			}
		}
	}
	summary.Percentage = float64(summary.Count) / float64(len(data)) * 100
	return summary
}

func testNormality(data []float64) (NormalityTest, bool) {
	sample := data
	if len(sample) > normalitySampleCap {
		sample = sample[:normalitySampleCap]
	}

	statistic, pValue, err := stat.JarqueBera(sample)
	if err != nil || math.IsNaN(statistic) {
		return NormalityTest{}, false
	}

	return NormalityTest{
		Test:      "jarque-bera",
		Statistic: statistic,
		PValue:    pValue,
		IsNormal:  pValue > 0.05,
	}, true
}

// confidenceInterval is the 95% CI of the mean via the t-distribution.
func confidenceInterval(data []float64) ConfidenceInterval {
	mean := stat.Mean(data)
	sem := stat.Std(data) / math.Sqrt(float64(len(data)))
	t := stat.TCritical95(len(data) - 1)

	return ConfidenceInterval{
		Mean:            mean,
		LowerBound:      mean - t*sem,
		UpperBound:      mean + t*sem,
		ConfidenceLevel: 0.95,
	}
}
