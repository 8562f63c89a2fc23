package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankiq_query_duration_seconds",
			Help:    "Guarded query execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
		},
		[]string{"query_type"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankiq_query_total",
			Help: "Total queries by terminal status",
		},
		[]string{"status"},
	)

	RowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bankiq_query_rows_returned",
			Help:    "Rows returned per successful execution",
			Buckets: []float64{0, 1, 10, 100, 500, 1000},
		},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankiq_analysis_duration_seconds",
			Help:    "Analyzer stage duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"stage"},
	)

	AnalysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankiq_analysis_errors_total",
			Help: "Analyzer stage failures contained at the stage boundary",
		},
		[]string{"stage"},
	)

	InsightsGenerated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bankiq_insights_generated",
			Help:    "Insights emitted per analysis report",
			Buckets: []float64{0, 1, 2, 5, 10},
		},
	)

	ReportConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bankiq_report_confidence",
			Help:    "Confidence scores of assembled analysis reports",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankiq_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankiq_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	MetricCategoryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankiq_metric_category_failures_total",
			Help: "Business metric categories omitted due to query failure",
		},
		[]string{"category"},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(RowsReturned)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(AnalysisErrors)
	prometheus.MustRegister(InsightsGenerated)
	prometheus.MustRegister(ReportConfidence)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(MetricCategoryFailures)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
