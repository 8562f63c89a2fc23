package analytics

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/internal/metrics"
	"github.com/bankiq/backend/pkg/logger"
)

// metricCategory is one independently-computed dashboard section. Each
// query returns a single row whose positions map onto build's inputs.
type metricCategory struct {
	name  string
	query string
	build func(row []database.Value) map[string]float64
}

var metricCategories = []metricCategory{
	{
		name: "customer_metrics",
		query: `SELECT COUNT(*) AS total_customers,
       COUNT(CASE WHEN customer_segment = 'premium' THEN 1 END) AS premium_customers,
       AVG(credit_score) AS avg_credit_score,
       AVG(annual_income) AS avg_annual_income
FROM customers`,
		build: func(row []database.Value) map[string]float64 {
			total := rowFloat(row, 0)
			return map[string]float64{
				"total_customers":       total,
				"premium_customer_rate": safeRate(rowFloat(row, 1), total),
				"avg_credit_score":      rowFloat(row, 2),
				"avg_annual_income":     rowFloat(row, 3),
			}
		},
	},
	{
		name: "account_metrics",
		query: `SELECT COUNT(*) AS total_accounts,
       SUM(balance) AS total_balance,
       AVG(balance) AS avg_balance,
       COUNT(CASE WHEN balance < 0 THEN 1 END) AS negative_accounts
FROM accounts
WHERE account_status = 'active'`,
		build: func(row []database.Value) map[string]float64 {
			total := rowFloat(row, 0)
			return map[string]float64{
				"total_accounts":        total,
				"total_balance":         rowFloat(row, 1),
				"avg_account_balance":   rowFloat(row, 2),
				"negative_balance_rate": safeRate(rowFloat(row, 3), total),
			}
		},
	},
	{
		name: "loan_metrics",
		query: `SELECT COUNT(*) AS total_loans,
       SUM(loan_amount) AS total_portfolio,
       SUM(outstanding_balance) AS total_outstanding,
       COUNT(CASE WHEN loan_status = 'default' THEN 1 END) AS defaulted_loans,
       AVG(interest_rate) AS avg_interest_rate
FROM loans`,
		build: func(row []database.Value) map[string]float64 {
			total := rowFloat(row, 0)
			return map[string]float64{
				"total_loans":          total,
				"total_loan_portfolio": rowFloat(row, 1),
				"total_outstanding":    rowFloat(row, 2),
				"default_rate":         safeRate(rowFloat(row, 3), total),
				"avg_interest_rate":    rowFloat(row, 4),
			}
		},
	},
	{
		name: "transaction_metrics",
		query: `SELECT COUNT(*) AS transaction_count,
       SUM(amount) AS transaction_volume,
       AVG(amount) AS avg_amount
FROM transactions
WHERE transaction_date >= date('now', '-30 days')
  AND status = 'completed'`,
		build: func(row []database.Value) map[string]float64 {
			return map[string]float64{
				"monthly_transaction_count":  rowFloat(row, 0),
				"monthly_transaction_volume": rowFloat(row, 1),
				"avg_transaction_amount":     rowFloat(row, 2),
			}
		},
	},
}

// CalculateBusinessMetrics aggregates the dashboard categories. A failing
// category is dropped from the response while the rest still compute.
func (s *Service) CalculateBusinessMetrics() *BusinessMetrics {
	out := &BusinessMetrics{
		Success:      true,
		Metrics:      make(map[string]map[string]float64, len(metricCategories)),
		CalculatedAt: time.Now().Format(time.RFC3339),
	}

	for _, category := range metricCategories {
		result := s.runner.ExecuteSafeQuery(category.query)
		if !result.Success || len(result.Rows) == 0 {
			metrics.MetricCategoryFailures.WithLabelValues(category.name).Inc()
			logger.Warn("Business metric category failed",
				zap.String("category", category.name),
				zap.String("error", result.Error),
			)
			continue
		}
		out.Metrics[category.name] = category.build(result.Rows[0])
	}

	return out
}

// safeRate is num/den*100 with a floor-of-one denominator, so an empty
// table reads as a 0% rate instead of a division fault.
func safeRate(num, den float64) float64 {
	if den < 1 {
		den = 1
	}
	return num / den * 100
}

func rowFloat(row []database.Value, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func rowString(row []database.Value, idx int) string {
	if idx >= len(row) {
		return ""
	}
	switch v := row[idx].(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return ""
	}
}
