package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/bankiq/backend/internal/database"
)

// cohortQueryTemplate buckets customers by acquisition month and joins
// every later activity month inside the rolling window. The single %d is
// the window size in months.
const cohortQueryTemplate = `WITH customer_cohorts AS (
    SELECT customer_id,
           strftime('%%Y-%%m-01', created_at) AS cohort_month
    FROM customers
    WHERE created_at >= date('now', '-%d months')
),
customer_activity AS (
    SELECT a.customer_id,
           strftime('%%Y-%%m-01', t.transaction_date) AS transaction_month,
           COUNT(t.transaction_id) AS transaction_count,
           SUM(t.amount) AS total_amount
    FROM accounts a
    JOIN transactions t ON a.account_id = t.account_id
    GROUP BY a.customer_id, strftime('%%Y-%%m-01', t.transaction_date)
)
SELECT cc.cohort_month,
       ca.transaction_month,
       COUNT(DISTINCT cc.customer_id) AS active_customers,
       SUM(ca.transaction_count) AS total_transactions,
       SUM(ca.total_amount) AS total_value
FROM customer_cohorts cc
JOIN customer_activity ca ON cc.customer_id = ca.customer_id
WHERE ca.transaction_month >= cc.cohort_month
GROUP BY cc.cohort_month, ca.transaction_month
ORDER BY cc.cohort_month, ca.transaction_month`

const cohortInsightFallback = "Cohort analysis completed but insight generation failed"

// PerformCohortAnalysis builds the customer-acquisition retention matrix.
// Structural errors come back in the response envelope, never as a panic.
func (s *Service) PerformCohortAnalysis(cohortType string) *CohortAnalysis {
	if cohortType == "" {
		cohortType = "customer_acquisition"
	}
	if cohortType != "customer_acquisition" {
		return &CohortAnalysis{
			Success:    false,
			CohortType: cohortType,
			Error:      fmt.Sprintf("unsupported cohort type: %s", cohortType),
		}
	}

	query := fmt.Sprintf(cohortQueryTemplate, s.cfg.CohortWindowMonths)
	result := s.runner.ExecuteSafeQuery(query)
	if !result.Success {
		return &CohortAnalysis{
			Success:    false,
			CohortType: cohortType,
			Error:      result.Error,
		}
	}

	rows := buildCohortRows(result, s.cfg.CohortPeriodDays)
	return &CohortAnalysis{
		Success:    true,
		CohortType: cohortType,
		Rows:       rows,
		Insights:   analyzeCohortRows(rows),
	}
}

// buildCohortRows derives period index and retention rate per matrix cell.
// The base of a cohort is its period-0 active count; a missing or zero
// base yields a 0 rate.
func buildCohortRows(result *database.Result, periodDays int) []CohortRow {
	if periodDays <= 0 {
		periodDays = 30
	}

	baseCounts := make(map[string]float64)
	for _, row := range result.Rows {
		cohortMonth := rowString(row, 0)
		activityMonth := rowString(row, 1)
		if cohortMonth != "" && cohortMonth == activityMonth {
			baseCounts[cohortMonth] = rowFloat(row, 2)
		}
	}

	rows := make([]CohortRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		cohortMonth := rowString(row, 0)
		activityMonth := rowString(row, 1)

		cr := CohortRow{
			CohortMonth:       cohortMonth,
			TransactionMonth:  activityMonth,
			Period:            cohortPeriod(cohortMonth, activityMonth, periodDays),
			ActiveCustomers:   int(rowFloat(row, 2)),
			TotalTransactions: rowFloat(row, 3),
			TotalValue:        rowFloat(row, 4),
		}
		if base := baseCounts[cohortMonth]; base > 0 {
			cr.RetentionRate = rowFloat(row, 2) / base * 100
		}
		rows = append(rows, cr)
	}
	return rows
}

func cohortPeriod(cohortMonth, activityMonth string, periodDays int) int {
	start, err1 := time.Parse("2006-01-02", cohortMonth)
	end, err2 := time.Parse("2006-01-02", activityMonth)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	days := int(end.Sub(start).Hours() / 24)
	return days / periodDays
}

// analyzeCohortRows produces human-readable retention findings. Any panic
// inside this stage degrades to a fixed fallback message so the matrix
// itself still ships.
func analyzeCohortRows(rows []CohortRow) (insights []string) {
	defer func() {
		if r := recover(); r != nil {
			insights = []string{cohortInsightFallback}
		}
	}()

	if len(rows) == 0 {
		return nil
	}

	byPeriod := make(map[int][]float64)
	byCohort := make(map[string][]float64)
	for _, row := range rows {
		byPeriod[row.Period] = append(byPeriod[row.Period], row.RetentionRate)
		byCohort[row.CohortMonth] = append(byCohort[row.CohortMonth], row.RetentionRate)
	}

	periods := make([]int, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	periodMeans := make([]float64, len(periods))
	for i, p := range periods {
		periodMeans[i] = meanOf(byPeriod[p])
	}

	for i := 1; i < len(periods); i++ {
		if periodMeans[i] < periodMeans[i-1]*0.8 {
			insights = append(insights, fmt.Sprintf(
				"Significant retention drop in period %d: %.1f%% vs %.1f%%",
				periods[i], periodMeans[i], periodMeans[i-1]))
		}
	}

	bestCohort, bestMean := "", -1.0
	months := make([]string, 0, len(byCohort))
	for m := range byCohort {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		if mean := meanOf(byCohort[m]); mean > bestMean {
			bestCohort, bestMean = m, mean
		}
	}
	if bestCohort != "" {
		insights = append(insights, fmt.Sprintf(
			"Best performing cohort: %s with %.1f%% average retention",
			bestCohort, bestMean))
	}

	if len(periods) > 3 {
		last := periodMeans[len(periodMeans)-1]
		early := periodMeans[1]
		if last > early {
			insights = append(insights, "Positive trend: Later period retention is improving")
		} else {
			insights = append(insights, "Concerning trend: Later period retention is declining")
		}
	}

	return insights
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
