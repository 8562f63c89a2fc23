package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/analytics"
	"github.com/bankiq/backend/internal/cache/redis"
	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/internal/storage/sqlite"
	"github.com/bankiq/backend/pkg/circuitbreaker"
	"github.com/bankiq/backend/pkg/logger"
)

// metricsCache is the slice of the Redis client the metrics workflow uses.
type metricsCache interface {
	GetMetrics(ctx context.Context, dest interface{}) (bool, error)
	SetMetrics(ctx context.Context, payload interface{}, ttl time.Duration) error
	InvalidateMetrics(ctx context.Context) error
}

// AnalyticsHandler exposes the analysis pipeline, the cohort and
// business-metrics workflows and the persisted report archive. The cache
// is optional; a nil client or an open breaker degrades to recomputing.
type AnalyticsHandler struct {
	service  *analytics.Service
	db       *database.Service
	store    *sqlite.Client
	cache    metricsCache
	breaker  *circuitbreaker.Breaker
	cacheTTL time.Duration
}

func NewAnalyticsHandler(
	service *analytics.Service,
	db *database.Service,
	store *sqlite.Client,
	cache *redis.Client,
	cacheTTL time.Duration,
) *AnalyticsHandler {
	h := &AnalyticsHandler{
		service:  service,
		db:       db,
		store:    store,
		breaker:  circuitbreaker.New("metrics-cache", circuitbreaker.Config{Logger: logger.Log}),
		cacheTTL: cacheTTL,
	}
	if cache != nil {
		h.cache = cache
	}
	return h
}

// HandleAnalyze executes a query and assembles the full analysis report.
func (h *AnalyticsHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req struct {
		Query        string `json:"query"`
		AnalysisType string `json:"analysis_type"`
		SessionID    string `json:"session_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	report, err := h.service.AnalyzeQuery(req.Query, req.AnalysisType, req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"report":  report,
	})
}

// HandleBusinessMetrics serves the dashboard aggregates, preferring the
// Redis cache behind a circuit breaker.
func (h *AnalyticsHandler) HandleBusinessMetrics(c *fiber.Ctx) error {
	if h.cache != nil {
		var cached analytics.BusinessMetrics
		err := h.breaker.Execute(func() error {
			hit, err := h.cache.GetMetrics(c.Context(), &cached)
			if err != nil {
				return err
			}
			if hit {
				cached.Success = true
				cached.Cached = true
				return nil
			}
			cached = analytics.BusinessMetrics{}
			return nil
		})
		if err != nil {
			logger.Warn("Metrics cache unavailable", zap.Error(err))
		} else if cached.Metrics != nil {
			return c.JSON(&cached)
		}
	}

	result := h.service.CalculateBusinessMetrics()

	if h.cache != nil && result.Success {
		err := h.breaker.Execute(func() error {
			return h.cache.SetMetrics(c.Context(), result, h.cacheTTL)
		})
		if err != nil {
			logger.Warn("Failed to cache business metrics", zap.Error(err))
		}
	}

	return c.JSON(result)
}

// HandleInvalidateMetricsCache drops the cached dashboard payload so the
// next business-metrics read recomputes from the database.
func (h *AnalyticsHandler) HandleInvalidateMetricsCache(c *fiber.Ctx) error {
	if h.cache == nil {
		return c.JSON(fiber.Map{
			"success":     true,
			"invalidated": false,
		})
	}

	err := h.breaker.Execute(func() error {
		return h.cache.InvalidateMetrics(c.Context())
	})
	if err != nil {
		logger.Warn("Failed to invalidate metrics cache", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Metrics cache unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"invalidated": true,
	})
}

func (h *AnalyticsHandler) HandleCohortAnalysis(c *fiber.Ctx) error {
	cohortType := c.Query("cohort_type", "customer_acquisition")

	result := h.service.PerformCohortAnalysis(cohortType)
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}
	return c.JSON(result)
}

func (h *AnalyticsHandler) HandleSmartInsights(c *fiber.Ctx) error {
	var req struct {
		Query     string `json:"query"`
		SessionID string `json:"session_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	result := h.service.GenerateSmartInsights(req.Query, req.SessionID)
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}
	return c.JSON(result)
}

func (h *AnalyticsHandler) HandleListReports(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	reports, err := h.store.ListReports(sessionID, limit)
	if err != nil {
		logger.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list reports",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reports": reports,
		"count":   len(reports),
	})
}

func (h *AnalyticsHandler) HandleGetReport(c *fiber.Ctx) error {
	reportID := c.Params("id")

	report, err := h.store.GetReport(reportID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Report not found",
		})
	}

	insights, err := h.store.GetReportInsights(reportID)
	if err != nil {
		logger.Warn("Failed to load report insights", zap.String("report_id", reportID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"report":   report,
		"insights": insights,
	})
}

// HandleRenderChart executes a query and draws one of its planned charts
// as PNG.
func (h *AnalyticsHandler) HandleRenderChart(c *fiber.Ctx) error {
	var req struct {
		Query string                  `json:"query"`
		Chart analytics.Visualization `json:"chart"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" || req.Chart.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query and chart plan are required",
		})
	}

	result := h.db.ExecuteSafeQuery(req.Query)
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}

	png, err := analytics.RenderVisualization(req.Chart, result)
	if err != nil {
		logger.Error("Chart rendering failed", zap.String("type", req.Chart.Type), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
