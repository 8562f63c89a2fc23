package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/database"
)

func TestClassifyAnalysisType(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"show me revenue trends over time", "trend"},
		{"how did balances change last quarter", "trend"},
		{"find unusual transactions", "outlier"},
		{"any anomalies in spending", "outlier"},
		{"is income correlated with credit score", "correlation"},
		{"what is the relationship between age and balance", "correlation"},
		{"customer retention by signup month", "cohort"},
		{"summarize account balances", "descriptive"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyAnalysisType(tt.query), "query %q", tt.query)
	}
}

func TestCannedQueryRouting(t *testing.T) {
	tests := []struct {
		query    string
		contains string
	}{
		{"show me premium customers", "annual_income > 100000"},
		{"customer segments breakdown", "GROUP BY customer_segment"},
		{"recent transaction activity", "FROM transactions"},
		{"loan portfolio health", "FROM loans"},
		{"give me an overview", "UNION ALL"},
	}

	for _, tt := range tests {
		assert.Contains(t, cannedQueryFor(tt.query), tt.contains, "query %q", tt.query)
	}
}

func TestCannedQueriesPassValidation(t *testing.T) {
	v := database.NewValidator(1000)

	questions := []string{
		"premium customers with high value",
		"customer overview",
		"transactions this month",
		"loans by status",
		"anything else",
	}

	for _, q := range questions {
		_, err := v.Validate(cannedQueryFor(q))
		assert.NoError(t, err, "canned query for %q must pass the validator", q)
	}
}

func TestGenerateSmartInsights(t *testing.T) {
	runner := &stubRunner{fallback: makeResult(
		[]string{"customer_segment", "customer_count", "avg_income", "avg_credit_score"},
		[][]database.Value{
			{"premium", int64(50), float64(150000), float64(760)},
			{"standard", int64(200), float64(60000), float64(680)},
		},
	)}
	svc := NewService(testConfig(), runner, nil)

	out := svc.GenerateSmartInsights("how are our customer segments doing", "")

	require.True(t, out.Success)
	assert.Equal(t, "descriptive", out.AnalysisType)
	assert.Contains(t, out.GeneratedSQL, "GROUP BY customer_segment")
	require.NotNil(t, out.Report)
	assert.NotNil(t, out.Report.Descriptive)
}

func TestGenerateSmartInsightsQueryFailure(t *testing.T) {
	runner := &stubRunner{fallback: &database.Result{Success: false, Error: "locked"}}
	svc := NewService(testConfig(), runner, nil)

	out := svc.GenerateSmartInsights("customer overview", "")

	assert.False(t, out.Success)
	assert.Equal(t, "locked", out.Error)
	assert.Nil(t, out.Report)
}
