package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/pkg/config"
)

// stubRunner routes queries to canned results by substring match.
type stubRunner struct {
	results  map[string]*database.Result
	fallback *database.Result
	queries  []string
}

func (s *stubRunner) ExecuteSafeQuery(query string) *database.Result {
	s.queries = append(s.queries, query)
	for needle, result := range s.results {
		if strings.Contains(query, needle) {
			return result
		}
	}
	if s.fallback != nil {
		return s.fallback
	}
	return &database.Result{Success: false, Query: query, Error: "no stub for query"}
}

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		MaxRows:            1000,
		TimeoutSeconds:     30,
		OutlierIQRMult:     1.5,
		AnomalyZThreshold:  3,
		CorrelationThresh:  0.7,
		TrendRThreshold:    0.3,
		TrendPThreshold:    0.05,
		CohortWindowMonths: 12,
		CohortPeriodDays:   30,
		TopInsights:        10,
		TopVisualizations:  8,
		TopRecommendations: 5,
	}
}

func cohortResult(rows [][]database.Value) *database.Result {
	return makeResult(
		[]string{"cohort_month", "transaction_month", "active_customers", "total_transactions", "total_value"},
		rows,
	)
}

func TestCohortRetentionRates(t *testing.T) {
	runner := &stubRunner{fallback: cohortResult([][]database.Value{
		{"2025-01-01", "2025-01-01", int64(100), int64(500), float64(25000)},
		{"2025-01-01", "2025-02-01", int64(60), int64(280), float64(14000)},
		{"2025-01-01", "2025-03-01", int64(40), int64(170), float64(8500)},
	})}
	svc := NewService(testConfig(), runner, nil)

	analysis := svc.PerformCohortAnalysis("customer_acquisition")

	require.True(t, analysis.Success)
	require.Len(t, analysis.Rows, 3)

	assert.Equal(t, 0, analysis.Rows[0].Period)
	assert.InDelta(t, 100, analysis.Rows[0].RetentionRate, 1e-9)

	assert.Equal(t, 1, analysis.Rows[1].Period)
	assert.InDelta(t, 60, analysis.Rows[1].RetentionRate, 1e-9)

	assert.Equal(t, 1, analysis.Rows[2].Period)
	assert.InDelta(t, 40, analysis.Rows[2].RetentionRate, 1e-9)
}

func TestCohortZeroBaseYieldsZeroRate(t *testing.T) {
	// No base-period row: the cohort only appears in a later month.
	runner := &stubRunner{fallback: cohortResult([][]database.Value{
		{"2025-01-01", "2025-03-01", int64(40), int64(170), float64(8500)},
	})}
	svc := NewService(testConfig(), runner, nil)

	analysis := svc.PerformCohortAnalysis("")

	require.True(t, analysis.Success)
	require.Len(t, analysis.Rows, 1)
	assert.Equal(t, float64(0), analysis.Rows[0].RetentionRate)
}

func TestCohortUnsupportedType(t *testing.T) {
	svc := NewService(testConfig(), &stubRunner{}, nil)

	analysis := svc.PerformCohortAnalysis("account_opening")

	assert.False(t, analysis.Success)
	assert.Contains(t, analysis.Error, "unsupported cohort type")
}

func TestCohortQueryFailure(t *testing.T) {
	runner := &stubRunner{fallback: &database.Result{Success: false, Error: "no such table: customers"}}
	svc := NewService(testConfig(), runner, nil)

	analysis := svc.PerformCohortAnalysis("customer_acquisition")

	assert.False(t, analysis.Success)
	assert.Contains(t, analysis.Error, "no such table")
}

func TestCohortWindowAppearsInQuery(t *testing.T) {
	cfg := testConfig()
	cfg.CohortWindowMonths = 6
	runner := &stubRunner{fallback: cohortResult(nil)}
	svc := NewService(cfg, runner, nil)

	svc.PerformCohortAnalysis("customer_acquisition")

	require.Len(t, runner.queries, 1)
	assert.Contains(t, runner.queries[0], "'-6 months'")
	assert.Contains(t, runner.queries[0], "strftime('%Y-%m-01', created_at)")
}

func TestAnalyzeCohortRowsInsights(t *testing.T) {
	rows := []CohortRow{
		{CohortMonth: "2025-01-01", Period: 0, RetentionRate: 100},
		{CohortMonth: "2025-01-01", Period: 1, RetentionRate: 70},
		{CohortMonth: "2025-02-01", Period: 0, RetentionRate: 100},
		{CohortMonth: "2025-02-01", Period: 1, RetentionRate: 90},
	}

	insights := analyzeCohortRows(rows)

	require.NotEmpty(t, insights)
	joined := strings.Join(insights, "\n")
	// Period-1 mean is 80, exactly the 0.8 cutoff: no drop alert fires.
	assert.NotContains(t, joined, "retention drop")
	assert.Contains(t, joined, "Best performing cohort: 2025-02-01")
}

func TestAnalyzeCohortRowsDropAlert(t *testing.T) {
	rows := []CohortRow{
		{CohortMonth: "2025-01-01", Period: 0, RetentionRate: 100},
		{CohortMonth: "2025-01-01", Period: 1, RetentionRate: 50},
	}

	insights := analyzeCohortRows(rows)

	require.NotEmpty(t, insights)
	assert.Contains(t, insights[0], "Significant retention drop in period 1")
}

func TestAnalyzeCohortRowsFlatTrendReportsDecline(t *testing.T) {
	// Last period mean equals the second period's; a plateau still reads
	// as a declining trend, never silence.
	rows := []CohortRow{
		{CohortMonth: "2025-01-01", Period: 0, RetentionRate: 100},
		{CohortMonth: "2025-01-01", Period: 1, RetentionRate: 90},
		{CohortMonth: "2025-01-01", Period: 2, RetentionRate: 90},
		{CohortMonth: "2025-01-01", Period: 3, RetentionRate: 90},
	}

	insights := analyzeCohortRows(rows)

	joined := strings.Join(insights, "\n")
	assert.Contains(t, joined, "Concerning trend")
	assert.NotContains(t, joined, "Positive trend")
}

func TestAnalyzeCohortRowsEmpty(t *testing.T) {
	assert.Nil(t, analyzeCohortRows(nil))
}
