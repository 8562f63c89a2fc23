package analytics

import "strings"

// SmartInsights is the response of the keyword-routed analysis entry
// point: the chosen canned query plus its full report.
type SmartInsights struct {
	Success      bool    `json:"success"`
	Query        string  `json:"query"`
	GeneratedSQL string  `json:"generated_sql"`
	AnalysisType string  `json:"analysis_type"`
	Report       *Report `json:"report,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// GenerateSmartInsights routes a free-text question to a canned query,
// executes it through the guarded pipeline and analyzes the result.
func (s *Service) GenerateSmartInsights(userQuery, sessionID string) *SmartInsights {
	analysisType := classifyAnalysisType(userQuery)
	sqlQuery := cannedQueryFor(userQuery)

	result := s.runner.ExecuteSafeQuery(sqlQuery)
	if !result.Success {
		return &SmartInsights{
			Success:      false,
			Query:        userQuery,
			GeneratedSQL: sqlQuery,
			AnalysisType: analysisType,
			Error:        result.Error,
		}
	}

	report := s.Analyze(sqlQuery, result, analysisType)
	if sessionID != "" {
		s.persistReport(report, sessionID)
	}

	return &SmartInsights{
		Success:      true,
		Query:        userQuery,
		GeneratedSQL: sqlQuery,
		AnalysisType: analysisType,
		Report:       report,
	}
}

// classifyAnalysisType picks the analysis flavor from question keywords;
// first match wins, descriptive is the fallback.
func classifyAnalysisType(userQuery string) string {
	q := strings.ToLower(userQuery)
	switch {
	case containsAny(q, "trend", "over time", "growth", "change"):
		return "trend"
	case containsAny(q, "outlier", "anomal", "unusual", "suspicious"):
		return "outlier"
	case containsAny(q, "correlat", "relationship", "related"):
		return "correlation"
	case containsAny(q, "cohort", "retention"):
		return "cohort"
	default:
		return "descriptive"
	}
}

// cannedQueryFor maps question keywords to a pre-baked analytical query.
// Every candidate passes the safety validator untouched.
func cannedQueryFor(userQuery string) string {
	q := strings.ToLower(userQuery)
	switch {
	case strings.Contains(q, "customer") && containsAny(q, "premium", "high value", "wealthy"):
		return `SELECT customer_segment,
       COUNT(*) AS customer_count,
       AVG(annual_income) AS avg_income,
       AVG(credit_score) AS avg_credit_score
FROM customers
WHERE customer_segment = 'premium' OR annual_income > 100000
GROUP BY customer_segment
ORDER BY avg_income DESC`
	case strings.Contains(q, "customer"):
		return `SELECT customer_segment,
       COUNT(*) AS customer_count,
       AVG(annual_income) AS avg_income,
       AVG(credit_score) AS avg_credit_score
FROM customers
GROUP BY customer_segment
ORDER BY customer_count DESC`
	case strings.Contains(q, "transaction"):
		return `SELECT transaction_type,
       COUNT(*) AS transaction_count,
       SUM(amount) AS total_amount,
       AVG(amount) AS avg_amount
FROM transactions
WHERE transaction_date >= date('now', '-30 days')
GROUP BY transaction_type
ORDER BY total_amount DESC`
	case strings.Contains(q, "loan"):
		return `SELECT loan_type,
       loan_status,
       COUNT(*) AS loan_count,
       SUM(loan_amount) AS total_amount,
       AVG(interest_rate) AS avg_rate
FROM loans
GROUP BY loan_type, loan_status
ORDER BY total_amount DESC`
	default:
		return `SELECT 'customers' AS entity, COUNT(*) AS total FROM customers
UNION ALL
SELECT 'accounts' AS entity, COUNT(*) AS total FROM accounts
UNION ALL
SELECT 'transactions_30d' AS entity, COUNT(*) AS total FROM transactions
WHERE transaction_date >= date('now', '-30 days')
UNION ALL
SELECT 'loans' AS entity, COUNT(*) AS total FROM loans`
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
