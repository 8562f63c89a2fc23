package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/bankiq/backend/internal/analytics/stat"
)

type insightThresholds struct {
	trendR       float64
	trendP       float64
	anomalyZ     float64
	correlation  float64
	topK         int
}

// generateInsights pools trend, anomaly and correlation findings, sorts
// them by significance descending (ties keep generation order) and
// truncates to the top K.
func generateInsights(f *frame, th insightThresholds) []Insight {
	var insights []Insight

	insights = append(insights, trendInsights(f, th.trendR, th.trendP)...)
	insights = append(insights, anomalyInsights(f, th.anomalyZ)...)
	insights = append(insights, correlationInsights(f, th.correlation)...)

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Significance > insights[j].Significance
	})

	if len(insights) > th.topK {
		insights = insights[:th.topK]
	}
	return insights
}

// trendInsights fits value against ordinal position for every
// (temporal, numeric) pair with at least 4 complete points, sorted by time.
func trendInsights(f *frame, rThreshold, pThreshold float64) []Insight {
	var insights []Insight

	for _, dateCol := range f.columnsOfKind(KindTemporal) {
		for _, numCol := range f.columnsOfKind(KindNumeric) {
			values := pairedSeries(dateCol, numCol)
			if len(values) < 4 {
				continue
			}

			x := make([]float64, len(values))
			y := make([]float64, len(values))
			for i, p := range values {
				x[i] = float64(i)
				y[i] = p.value
			}

			reg, err := stat.LinReg(x, y)
			if err != nil {
				continue
			}
			if math.Abs(reg.R) <= rThreshold || reg.PValue >= pThreshold {
				continue
			}

			direction := "increasing"
			if reg.Slope <= 0 {
				direction = "decreasing"
			}
			insights = append(insights, Insight{
				Type:         "trend",
				Title:        fmt.Sprintf("%s shows %s trend over time", numCol.name, direction),
				Description:  fmt.Sprintf("Linear correlation: %.3f, p-value: %.3f", reg.R, reg.PValue),
				Metric:       numCol.name,
				Value:        reg.Slope,
				Significance: math.Abs(reg.R),
			})
		}
	}

	return insights
}

type timedValue struct {
	at    int64
	value float64
}

// pairedSeries drops rows where either side is null and sorts by the
// temporal column.
func pairedSeries(dateCol, numCol *column) []timedValue {
	var out []timedValue
	for i := range dateCol.cells {
		dc, nc := dateCol.cells[i], numCol.cells[i]
		if dc.null || nc.null || !dc.isTime {
			continue
		}
		out = append(out, timedValue{at: dc.ts.UnixNano(), value: nc.num})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// anomalyInsights counts |z| > threshold values per numeric column with
// more than 10 non-null values.
func anomalyInsights(f *frame, zThreshold float64) []Insight {
	var insights []Insight

	for _, col := range f.columnsOfKind(KindNumeric) {
		data := col.numbers()
		if len(data) <= 10 {
			continue
		}

		outliers := 0
		for _, z := range stat.ZScores(data) {
			if math.Abs(z) > zThreshold {
				outliers++
			}
		}
		if outliers == 0 {
			continue
		}

		insights = append(insights, Insight{
			Type:         "anomaly",
			Title:        fmt.Sprintf("Found %d statistical outliers in %s", outliers, col.name),
			Description:  fmt.Sprintf("Values more than %g standard deviations from mean", zThreshold),
			Metric:       col.name,
			Value:        float64(outliers),
			Significance: math.Min(float64(outliers)/float64(len(data)), 1.0),
		})
	}

	return insights
}

// correlationInsights reports every unordered numeric pair whose absolute
// correlation clears the threshold.
func correlationInsights(f *frame, threshold float64) []Insight {
	var insights []Insight
	cols := f.columnsOfKind(KindNumeric)

	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			x, y := pairedNumbers(cols[i], cols[j])
			corr := stat.Correlation(x, y)
			if math.Abs(corr) <= threshold {
				continue
			}

			relationship := "strong positive"
			if corr < 0 {
				relationship = "strong negative"
			}
			insights = append(insights, Insight{
				Type:         "correlation",
				Title:        fmt.Sprintf("%s correlation between %s and %s", relationship, cols[i].name, cols[j].name),
				Description:  fmt.Sprintf("Correlation coefficient: %.3f", corr),
				Metric:       fmt.Sprintf("%s_vs_%s", cols[i].name, cols[j].name),
				Value:        corr,
				Significance: math.Abs(corr),
			})
		}
	}

	return insights
}
