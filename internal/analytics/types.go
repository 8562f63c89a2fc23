package analytics

import (
	"time"

	"github.com/bankiq/backend/internal/database"
)

// ColumnKind is the inferred type tag computed once per column; every
// analyzer switches on it instead of re-inferring.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindTemporal    ColumnKind = "temporal"
	KindUnknown     ColumnKind = "unknown"
)

// Insight is one ranked finding. Significance is a 0..1 ordering score,
// not a p-value.
type Insight struct {
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Metric       string  `json:"metric"`
	Value        float64 `json:"value"`
	Significance float64 `json:"significance"`
}

// Visualization maps a column-kind combination to a chart configuration.
type Visualization struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	XColumn     string `json:"x_column"`
	YColumn     string `json:"y_column,omitempty"`
	Description string `json:"description"`
}

type NumericDescribe struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"25%"`
	Median float64 `json:"50%"`
	Q75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

type NumericSummary struct {
	Describe     map[string]NumericDescribe    `json:"describe"`
	Correlations map[string]map[string]float64 `json:"correlations,omitempty"`
	Skewness     map[string]float64            `json:"skewness"`
	Kurtosis     map[string]float64            `json:"kurtosis"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type CategoricalSummary struct {
	UniqueCount int          `json:"unique_count"`
	ValueCounts []ValueCount `json:"value_counts"`
	Mode        string       `json:"mode"`
}

type TemporalSummary struct {
	MinDate       string `json:"min_date"`
	MaxDate       string `json:"max_date"`
	DateRangeDays int    `json:"date_range_days"`
}

// DescriptiveSummary is the per-column profiling stage output. Columns with
// zero rows produce empty summaries, never errors.
type DescriptiveSummary struct {
	ColumnKinds        map[string]ColumnKind         `json:"column_kinds"`
	NumericSummary     NumericSummary                `json:"numeric_summary"`
	CategoricalSummary map[string]CategoricalSummary `json:"categorical_summary"`
	TemporalSummary    map[string]TemporalSummary    `json:"temporal_summary"`
	MissingValues      map[string]int                `json:"missing_values"`
	DuplicateRows      int                           `json:"duplicate_rows"`
}

type OutlierSummary struct {
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
	Values     []float64 `json:"values"`
}

type NormalityTest struct {
	Test      string  `json:"test"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	IsNormal  bool    `json:"is_normal"`
}

type ConfidenceInterval struct {
	Mean            float64 `json:"mean"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// StatisticalSummary holds the outlier, normality and confidence-interval
// stage output. A column that fails a test is simply absent from that map.
type StatisticalSummary struct {
	Outliers            map[string]OutlierSummary     `json:"outliers"`
	NormalityTests      map[string]NormalityTest      `json:"normality_tests"`
	ConfidenceIntervals map[string]ConfidenceInterval `json:"confidence_intervals"`
}

// Report is the assembled analysis of one execution result. StageErrors
// carries per-stage failures; a failed stage never aborts its siblings.
type Report struct {
	Query           string              `json:"query"`
	Result          *database.Result    `json:"result"`
	AnalysisType    string              `json:"analysis_type"`
	Descriptive     *DescriptiveSummary `json:"descriptive"`
	Statistical     *StatisticalSummary `json:"statistical"`
	Insights        []Insight           `json:"insights"`
	Visualizations  []Visualization     `json:"visualizations"`
	Recommendations []string            `json:"recommendations"`
	Confidence      float64             `json:"confidence"`
	StageErrors     map[string]string   `json:"stage_errors,omitempty"`
	ReportID        string              `json:"report_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CohortRow is one (acquisition period, activity period) cell of the
// retention matrix. RetentionRate is 0, never a division fault, when the
// cohort's base-period count is 0.
type CohortRow struct {
	CohortMonth       string  `json:"cohort_month"`
	TransactionMonth  string  `json:"transaction_month"`
	Period            int     `json:"period"`
	ActiveCustomers   int     `json:"active_customers"`
	RetentionRate     float64 `json:"retention_rate"`
	TotalTransactions float64 `json:"total_transactions"`
	TotalValue        float64 `json:"total_value"`
}

type CohortAnalysis struct {
	Success    bool        `json:"success"`
	CohortType string      `json:"cohort_type"`
	Rows       []CohortRow `json:"data"`
	Insights   []string    `json:"insights"`
	Error      string      `json:"error,omitempty"`
}

// BusinessMetrics maps category name to named numeric values. A failed
// category is omitted; siblings still compute. Cached marks responses
// served from the dashboard cache rather than recomputed.
type BusinessMetrics struct {
	Success      bool                          `json:"success"`
	Cached       bool                          `json:"cached"`
	Metrics      map[string]map[string]float64 `json:"metrics"`
	CalculatedAt string                        `json:"calculated_at"`
	Error        string                        `json:"error,omitempty"`
}
