package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/internal/storage/sqlite"
	"github.com/bankiq/backend/pkg/logger"
)

// QueryHandler exposes the guarded execution pipeline plus the query
// history and schema endpoints.
type QueryHandler struct {
	dbService *database.Service
	store     *sqlite.Client
}

func NewQueryHandler(dbService *database.Service, store *sqlite.Client) *QueryHandler {
	return &QueryHandler{
		dbService: dbService,
		store:     store,
	}
}

// HandleExecuteQuery runs one raw SQL query through validation and the
// bounded executor. Rejections and failures come back as a structured
// envelope with HTTP 400, never as a bare 500.
func (h *QueryHandler) HandleExecuteQuery(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
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

	result := h.dbService.ExecuteSafeQuery(req.Query)
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}

	return c.JSON(result)
}

func (h *QueryHandler) HandleQueryHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	history, err := h.store.GetQueryHistory(limit)
	if err != nil {
		logger.Error("Failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query history",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"history": history,
		"count":   len(history),
	})
}

func (h *QueryHandler) HandleDatabaseStats(c *fiber.Ctx) error {
	stats := h.dbService.GetDatabaseStats()
	if !stats.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(stats)
	}
	return c.JSON(stats)
}
