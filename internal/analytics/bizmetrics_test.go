package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/database"
)

func TestCalculateBusinessMetrics(t *testing.T) {
	runner := &stubRunner{results: map[string]*database.Result{
		"FROM customers": makeResult(
			[]string{"total_customers", "premium_customers", "avg_credit_score", "avg_annual_income"},
			[][]database.Value{{int64(200), int64(50), float64(690), float64(85000)}},
		),
		"FROM accounts": makeResult(
			[]string{"total_accounts", "total_balance", "avg_balance", "negative_accounts"},
			[][]database.Value{{int64(400), float64(2000000), float64(5000), int64(8)}},
		),
		"FROM loans": makeResult(
			[]string{"total_loans", "total_portfolio", "total_outstanding", "defaulted_loans", "avg_interest_rate"},
			[][]database.Value{{int64(100), float64(5000000), float64(3200000), int64(4), float64(6.5)}},
		),
		"FROM transactions": makeResult(
			[]string{"transaction_count", "transaction_volume", "avg_amount"},
			[][]database.Value{{int64(1500), float64(320000), float64(213.33)}},
		),
	}}
	svc := NewService(testConfig(), runner, nil)

	out := svc.CalculateBusinessMetrics()

	require.True(t, out.Success)
	require.Len(t, out.Metrics, 4)
	assert.NotEmpty(t, out.CalculatedAt)

	customer := out.Metrics["customer_metrics"]
	assert.Equal(t, float64(200), customer["total_customers"])
	assert.InDelta(t, 25, customer["premium_customer_rate"], 1e-9)

	account := out.Metrics["account_metrics"]
	assert.InDelta(t, 2, account["negative_balance_rate"], 1e-9)

	loan := out.Metrics["loan_metrics"]
	assert.InDelta(t, 4, loan["default_rate"], 1e-9)
	assert.Equal(t, float64(3200000), loan["total_outstanding"])

	transaction := out.Metrics["transaction_metrics"]
	assert.Equal(t, float64(1500), transaction["monthly_transaction_count"])
}

func TestCalculateBusinessMetricsEmptyTables(t *testing.T) {
	runner := &stubRunner{fallback: makeResult(
		[]string{"a", "b", "c", "d", "e"},
		[][]database.Value{{int64(0), nil, nil, int64(0), nil}},
	)}
	svc := NewService(testConfig(), runner, nil)

	out := svc.CalculateBusinessMetrics()

	require.True(t, out.Success)
	// Zero denominators read as 0% rates, never a fault.
	assert.Equal(t, float64(0), out.Metrics["customer_metrics"]["premium_customer_rate"])
	assert.Equal(t, float64(0), out.Metrics["loan_metrics"]["default_rate"])
}

func TestCalculateBusinessMetricsPartialFailure(t *testing.T) {
	runner := &stubRunner{
		results: map[string]*database.Result{
			"FROM customers": makeResult(
				[]string{"total_customers", "premium_customers", "avg_credit_score", "avg_annual_income"},
				[][]database.Value{{int64(10), int64(1), float64(700), float64(90000)}},
			),
		},
		fallback: &database.Result{Success: false, Error: "no such table"},
	}
	svc := NewService(testConfig(), runner, nil)

	out := svc.CalculateBusinessMetrics()

	require.True(t, out.Success)
	assert.Len(t, out.Metrics, 1)
	assert.Contains(t, out.Metrics, "customer_metrics")
}

func TestSafeRate(t *testing.T) {
	assert.Equal(t, float64(25), safeRate(1, 4))
	assert.Equal(t, float64(0), safeRate(0, 0))
	assert.Equal(t, float64(300), safeRate(3, 0))
	assert.Equal(t, float64(100), safeRate(5, 5))
}

func TestRowHelpers(t *testing.T) {
	row := []database.Value{int64(5), "12.5", nil, "text", float64(2.5)}

	assert.Equal(t, float64(5), rowFloat(row, 0))
	assert.Equal(t, float64(12.5), rowFloat(row, 1))
	assert.Equal(t, float64(0), rowFloat(row, 2))
	assert.Equal(t, float64(0), rowFloat(row, 3))
	assert.Equal(t, float64(2.5), rowFloat(row, 4))
	assert.Equal(t, float64(0), rowFloat(row, 99))

	assert.Equal(t, "text", rowString(row, 3))
	assert.Equal(t, "", rowString(row, 0))
	assert.Equal(t, "", rowString(row, 99))
}
