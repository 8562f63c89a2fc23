package analytics

import (
	"fmt"
	"strings"

	"github.com/bankiq/backend/internal/analytics/stat"
)

// describeFrame profiles every column by its inferred kind: moments and a
// correlation matrix for numeric columns, frequency tables for categorical
// ones, min/max/span for temporal ones. An empty result produces empty
// summaries, never an error.
func describeFrame(f *frame) *DescriptiveSummary {
	summary := &DescriptiveSummary{
		ColumnKinds: make(map[string]ColumnKind),
		NumericSummary: NumericSummary{
			Describe: make(map[string]NumericDescribe),
			Skewness: make(map[string]float64),
			Kurtosis: make(map[string]float64),
		},
		CategoricalSummary: make(map[string]CategoricalSummary),
		TemporalSummary:    make(map[string]TemporalSummary),
		MissingValues:      make(map[string]int),
	}

	for _, col := range f.columns {
		summary.ColumnKinds[col.name] = col.kind
		summary.MissingValues[col.name] = col.missingCount()
	}

	summary.DuplicateRows = countDuplicateRows(f)

	numericCols := f.columnsOfKind(KindNumeric)
	for _, col := range numericCols {
		data := col.numbers()
		summary.NumericSummary.Describe[col.name] = describeNumbers(data)
		summary.NumericSummary.Skewness[col.name] = stat.Skewness(data)
		summary.NumericSummary.Kurtosis[col.name] = stat.Kurtosis(data)
	}

	if len(numericCols) >= 2 {
		summary.NumericSummary.Correlations = correlationMatrix(numericCols)
	}

	for _, col := range f.columnsOfKind(KindCategorical) {
		summary.CategoricalSummary[col.name] = describeCategorical(col.texts())
	}

	for _, col := range f.columnsOfKind(KindTemporal) {
		summary.TemporalSummary[col.name] = describeTemporal(col)
	}

	return summary
}

func describeNumbers(data []float64) NumericDescribe {
	if len(data) == 0 {
		return NumericDescribe{}
	}
	return NumericDescribe{
		Count:  len(data),
		Mean:   stat.Mean(data),
		Std:    stat.Std(data),
		Min:    stat.Quantile(data, 0),
		Q25:    stat.Quantile(data, 0.25),
		Median: stat.Quantile(data, 0.5),
		Q75:    stat.Quantile(data, 0.75),
		Max:    stat.Quantile(data, 1),
	}
}

// correlationMatrix pairs rows where both columns are non-null.
func correlationMatrix(cols []*column) map[string]map[string]float64 {
	matrix := make(map[string]map[string]float64, len(cols))
	for _, a := range cols {
		matrix[a.name] = make(map[string]float64, len(cols))
		for _, b := range cols {
			if a == b {
				matrix[a.name][b.name] = 1
				continue
			}
			x, y := pairedNumbers(a, b)
			matrix[a.name][b.name] = stat.Correlation(x, y)
		}
	}
	return matrix
}

func pairedNumbers(a, b *column) ([]float64, []float64) {
	var x, y []float64
	for i := range a.cells {
		ca, cb := a.cells[i], b.cells[i]
		if ca.null || cb.null {
			continue
		}
		x = append(x, ca.num)
		y = append(y, cb.num)
	}
	return x, y
}

// describeCategorical reports unique count, the top-10 frequency table and
// the mode. Frequency ties keep first-encountered order.
func describeCategorical(values []string) CategoricalSummary {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	// Stable insertion sort by count keeps encounter order on ties.
	ranked := make([]string, len(order))
	copy(ranked, order)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	summary := CategoricalSummary{UniqueCount: len(order)}
	for i, v := range ranked {
		if i >= 10 {
			break
		}
		summary.ValueCounts = append(summary.ValueCounts, ValueCount{Value: v, Count: counts[v]})
	}
	if len(ranked) > 0 {
		summary.Mode = ranked[0]
	}
	return summary
}

func describeTemporal(col *column) TemporalSummary {
	times := col.times()
	if len(times) == 0 {
		return TemporalSummary{}
	}
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return TemporalSummary{
		MinDate:       min.Format("2006-01-02T15:04:05Z07:00"),
		MaxDate:       max.Format("2006-01-02T15:04:05Z07:00"),
		DateRangeDays: int(max.Sub(min).Hours() / 24),
	}
}

// countDuplicateRows counts rows whose full cell sequence repeats an
// earlier row.
func countDuplicateRows(f *frame) int {
	if f.rowCount == 0 || len(f.columns) == 0 {
		return 0
	}
	seen := make(map[string]bool, f.rowCount)
	dups := 0
	var b strings.Builder
	for i := 0; i < f.rowCount; i++ {
		b.Reset()
		for _, col := range f.columns {
			c := col.cells[i]
			if c.null {
				b.WriteString("\x00nil")
			} else {
				fmt.Fprintf(&b, "\x00%s", c.text)
			}
		}
		key := b.String()
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}
