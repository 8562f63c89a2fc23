package analytics

import (
	"fmt"
	"strings"

	"github.com/bankiq/backend/internal/analytics/stat"
)

// generateRecommendations evaluates a fixed-order list of heuristic rules
// and caps the output: data quality, result volume, per-column variability,
// then one domain suggestion keyed off the originating query text.
func generateRecommendations(f *frame, query string, topK int) []string {
	var recs []string

	if msg, ok := missingDataRecommendation(f); ok {
		recs = append(recs, msg)
	}

	if f.rowCount > 10000 {
		recs = append(recs, "Performance: Large dataset detected. Consider using pagination, "+
			"filtering, or aggregation for better query performance.")
	}

	for _, col := range f.columnsOfKind(KindNumeric) {
		data := col.numbers()
		if len(data) == 0 {
			continue
		}
		cv := 0.0
		if mean := stat.Mean(data); mean != 0 {
			cv = stat.PopStd(data) / mean
		}
		if cv > 1 {
			recs = append(recs, fmt.Sprintf("High Variability: %s shows high coefficient of variation (%.2f). "+
				"Consider investigating outliers or data segmentation.", col.name, cv))
		}
	}

	if msg, ok := domainRecommendation(query); ok {
		recs = append(recs, msg)
	}

	if len(recs) > topK {
		recs = recs[:topK]
	}
	return recs
}

// missingDataRecommendation fires once, naming up to 3 columns with more
// than 10% missing values.
func missingDataRecommendation(f *frame) (string, bool) {
	if f.rowCount == 0 {
		return "", false
	}

	var affected []string
	for _, col := range f.columns {
		pct := float64(col.missingCount()) / float64(f.rowCount) * 100
		if pct > 10 {
			affected = append(affected, col.name)
		}
	}
	if len(affected) == 0 {
		return "", false
	}

	named := affected
	if len(named) > 3 {
		named = named[:3]
	}
	return fmt.Sprintf("Data Quality Alert: %d columns have >10%% missing values. "+
		"Consider data cleaning for: %s", len(affected), strings.Join(named, ", ")), true
}

// domainRecommendation is mutually exclusive: the first keyword match wins.
func domainRecommendation(query string) (string, bool) {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "customer"):
		return "Customer Analysis: Consider segmenting customers by value, behavior, " +
			"or demographics for more targeted insights.", true
	case strings.Contains(q, "transaction"):
		return "Transaction Analysis: Look for seasonal patterns, fraud indicators, " +
			"or customer spending behavior trends.", true
	case strings.Contains(q, "loan"):
		return "Loan Analysis: Monitor default rates, payment patterns, " +
			"and risk factors for portfolio management.", true
	}
	return "", false
}
