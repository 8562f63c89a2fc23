package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/internal/metrics"
	"github.com/bankiq/backend/internal/storage/models"
	"github.com/bankiq/backend/pkg/config"
	"github.com/bankiq/backend/pkg/logger"
)

// ReportStore persists assembled reports when a session identifier is
// supplied. Persistence failures are logged, never propagated.
type ReportStore interface {
	InsertReport(report *models.AnalysisReport) error
	InsertInsight(insight *models.DataInsight) error
}

// Service derives statistical insights, recommendations and chart plans
// from guarded query executions.
type Service struct {
	cfg    config.AnalyticsConfig
	runner database.Runner
	store  ReportStore
}

func NewService(cfg config.AnalyticsConfig, runner database.Runner, store ReportStore) *Service {
	return &Service{
		cfg:    cfg,
		runner: runner,
		store:  store,
	}
}

// AnalyzeQuery executes a raw query through the guarded pipeline and, on
// success, assembles the full analysis report. A non-nil error means the
// query itself failed; analyzer stage failures never surface here.
func (s *Service) AnalyzeQuery(query, analysisType, sessionID string) (*Report, error) {
	result := s.runner.ExecuteSafeQuery(query)
	if !result.Success {
		return nil, fmt.Errorf("query execution failed: %s", result.Error)
	}

	report := s.Analyze(query, result, analysisType)

	if sessionID != "" {
		s.persistReport(report, sessionID)
	}

	return report, nil
}

// Analyze runs the five analyzer stages over an already-materialized
// execution result. Each stage failure is contained at its boundary and
// recorded in StageErrors; siblings always run.
func (s *Service) Analyze(query string, result *database.Result, analysisType string) *Report {
	if analysisType == "" {
		analysisType = "descriptive"
	}

	report := &Report{
		Query:        query,
		Result:       result,
		AnalysisType: analysisType,
		StageErrors:  make(map[string]string),
		CreatedAt:    time.Now(),
	}

	f := buildFrame(result)

	s.runStage("descriptive", report.StageErrors, func() {
		report.Descriptive = describeFrame(f)
	})
	s.runStage("statistical", report.StageErrors, func() {
		report.Statistical = analyzeStatistics(f, s.cfg.OutlierIQRMult)
	})
	s.runStage("insights", report.StageErrors, func() {
		report.Insights = generateInsights(f, insightThresholds{
			trendR:      s.cfg.TrendRThreshold,
			trendP:      s.cfg.TrendPThreshold,
			anomalyZ:    s.cfg.AnomalyZThreshold,
			correlation: s.cfg.CorrelationThresh,
			topK:        s.cfg.TopInsights,
		})
	})
	s.runStage("visualizations", report.StageErrors, func() {
		report.Visualizations = planVisualizations(f, s.cfg.TopVisualizations)
	})
	s.runStage("recommendations", report.StageErrors, func() {
		report.Recommendations = generateRecommendations(f, query, s.cfg.TopRecommendations)
	})

	if len(report.StageErrors) == 0 {
		report.StageErrors = nil
	}

	report.Confidence = confidenceScore(report)
	metrics.InsightsGenerated.Observe(float64(len(report.Insights)))
	metrics.ReportConfidence.Observe(report.Confidence)

	return report
}

func (s *Service) runStage(name string, stageErrors map[string]string, fn func()) {
	timer := prometheus.NewTimer(metrics.AnalysisDuration.WithLabelValues(name))
	defer timer.ObserveDuration()
	defer func() {
		if r := recover(); r != nil {
			stageErrors[name] = fmt.Sprintf("%s analysis failed: %v", name, r)
			metrics.AnalysisErrors.WithLabelValues(name).Inc()
			logger.Error("Analyzer stage failed",
				zap.String("stage", name),
				zap.Any("cause", r),
			)
		}
	}()
	fn()
}

// confidenceScore blends stage completeness with data volume.
func confidenceScore(report *Report) float64 {
	const stages = 5
	completed := stages - len(report.StageErrors)

	score := 0.5
	score += 0.3 * float64(completed) / stages
	score += 0.2 * math.Min(float64(report.Result.RowCount)/1000, 1.0)
	return math.Min(score, 1.0)
}

func (s *Service) persistReport(report *Report, sessionID string) {
	if s.store == nil {
		return
	}

	record := &models.AnalysisReport{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		AnalysisType:    report.AnalysisType,
		QueryExecuted:   report.Query,
		RawResult:       marshalJSON(report.Result),
		Descriptive:     marshalJSON(report.Descriptive),
		Statistical:     marshalJSON(report.Statistical),
		Visualizations:  marshalJSON(report.Visualizations),
		Recommendations: strings.Join(report.Recommendations, "\n"),
		Confidence:      report.Confidence,
		CreatedAt:       report.CreatedAt,
	}

	if err := s.store.InsertReport(record); err != nil {
		logger.Warn("Could not save analysis report", zap.Error(err))
		return
	}

	for _, insight := range report.Insights {
		err := s.store.InsertInsight(&models.DataInsight{
			ReportID:     record.ID,
			InsightType:  insight.Type,
			Title:        insight.Title,
			Description:  insight.Description,
			MetricName:   insight.Metric,
			MetricValue:  insight.Value,
			Significance: insight.Significance,
		})
		if err != nil {
			logger.Warn("Could not save insight", zap.String("report_id", record.ID), zap.Error(err))
		}
	}

	report.ReportID = record.ID
}

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
