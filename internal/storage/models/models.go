package models

import "time"

// AnalysisReport is the persisted form of an assembled report. Nested
// payloads are stored as JSON text columns.
type AnalysisReport struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	AnalysisType    string    `json:"analysis_type"`
	QueryExecuted   string    `json:"query_executed"`
	RawResult       string    `json:"raw_result"`
	Descriptive     string    `json:"descriptive"`
	Statistical     string    `json:"statistical"`
	Visualizations  string    `json:"visualizations"`
	Recommendations string    `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
	CreatedAt       time.Time `json:"created_at"`
}

// DataInsight is one ranked insight attached to a persisted report.
type DataInsight struct {
	ID           int64     `json:"id"`
	ReportID     string    `json:"report_id"`
	InsightType  string    `json:"insight_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	MetricName   string    `json:"metric_name"`
	MetricValue  float64   `json:"metric_value"`
	Significance float64   `json:"significance"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueryExecution is one row of query history, recorded for every guarded
// execution regardless of outcome.
type QueryExecution struct {
	ID        string    `json:"id"`
	RawQuery  string    `json:"raw_query"`
	Query     string    `json:"query"`
	Status    string    `json:"status"`
	RowCount  int       `json:"row_count"`
	Truncated bool      `json:"truncated"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int       `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
