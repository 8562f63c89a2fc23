package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/analytics"
	"github.com/bankiq/backend/internal/api/handlers"
	"github.com/bankiq/backend/internal/cache/redis"
	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/internal/metrics"
	"github.com/bankiq/backend/internal/middleware/ratelimit"
	"github.com/bankiq/backend/internal/middleware/security"
	"github.com/bankiq/backend/internal/middleware/validation"
	"github.com/bankiq/backend/internal/storage/sqlite"
	"github.com/bankiq/backend/pkg/config"
	appLogger "github.com/bankiq/backend/pkg/logger"
	"github.com/bankiq/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting analytical query engine API")

	metrics.Init()

	var store *sqlite.Client
	err = retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		var err error
		store, err = sqlite.NewClient(cfg.SQLite.Path)
		return err
	})
	if err != nil {
		appLogger.Fatal("Failed to open SQLite database", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Redis only backs the dashboard cache; a missing instance is a
	// degraded start, not a fatal one.
	var cache *redis.Client
	err = retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		var err error
		cache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		return err
	})
	if err != nil {
		appLogger.Warn("Redis unavailable, business metrics will not be cached", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
	}

	dbService := database.NewService(
		store.DB(),
		cfg.Analytics.MaxRows,
		time.Duration(cfg.Analytics.TimeoutSeconds)*time.Second,
		store,
	)
	if err := dbService.TestConnection(); err != nil {
		appLogger.Fatal("Database connection test failed", zap.Error(err))
	}

	analyticsService := analytics.NewService(cfg.Analytics, dbService, store)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Session-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxBodyBytes: cfg.Server.BodyLimit,
		Logger:       appLogger.Log,
	}))

	queryHandler := handlers.NewQueryHandler(dbService, store)
	analyticsHandler := handlers.NewAnalyticsHandler(
		analyticsService,
		dbService,
		store,
		cache,
		time.Duration(cfg.Analytics.MetricsCacheTTLSec)*time.Second,
	)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleExecuteQuery)
	api.Get("/query/history", queryHandler.HandleQueryHistory)
	api.Get("/database/stats", queryHandler.HandleDatabaseStats)

	api.Post("/analytics/analyze", analyticsHandler.HandleAnalyze)
	api.Post("/analytics/smart-insights", analyticsHandler.HandleSmartInsights)
	api.Get("/analytics/business-metrics", analyticsHandler.HandleBusinessMetrics)
	api.Delete("/analytics/business-metrics/cache", analyticsHandler.HandleInvalidateMetricsCache)
	api.Get("/analytics/cohort", analyticsHandler.HandleCohortAnalysis)
	api.Get("/analytics/reports", analyticsHandler.HandleListReports)
	api.Get("/analytics/reports/:id", analyticsHandler.HandleGetReport)
	api.Post("/analytics/charts", analyticsHandler.HandleRenderChart)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if err := dbService.TestConnection(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
