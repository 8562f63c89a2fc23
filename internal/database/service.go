package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/metrics"
	"github.com/bankiq/backend/internal/storage/models"
	"github.com/bankiq/backend/pkg/logger"
)

// HistoryStore records executed queries. Persistence failures are logged
// and never affect the execution result.
type HistoryStore interface {
	RecordQuery(rec *models.QueryExecution) error
}

// Runner is the capability the analytical workflows drive: validate plus
// bounded execution folded into one structured result.
type Runner interface {
	ExecuteSafeQuery(query string) *Result
}

// Service is the guarded front door to the data source: every query passes
// the validator, then the bounded executor.
type Service struct {
	validator *Validator
	executor  *Executor
	db        *sql.DB
	history   HistoryStore
}

func NewService(db *sql.DB, maxRows int, timeout time.Duration, history HistoryStore) *Service {
	return &Service{
		validator: NewValidator(maxRows),
		executor:  NewExecutor(db, maxRows, timeout),
		db:        db,
		history:   history,
	}
}

// ExecuteSafeQuery validates, normalizes and executes a raw query. Failures
// of every kind come back as a Result with Success=false and a
// human-readable message; nothing escapes as a fault.
func (s *Service) ExecuteSafeQuery(raw string) *Result {
	started := time.Now()

	normalized, err := s.validator.Validate(raw)
	if err != nil {
		logger.Warn("Query rejected", zap.String("query", raw), zap.Error(err))
		metrics.QueryTotal.WithLabelValues("rejected").Inc()
		result := &Result{Success: false, Query: raw, Error: err.Error()}
		s.record(result, raw, "rejected", time.Since(started))
		return result
	}

	result, err := s.executor.Execute(normalized)
	elapsed := time.Since(started)
	metrics.QueryDuration.WithLabelValues("sql").Observe(elapsed.Seconds())

	switch err.(type) {
	case nil:
		metrics.QueryTotal.WithLabelValues("success").Inc()
		metrics.RowsReturned.Observe(float64(result.RowCount))
		logger.Debug("Query executed",
			zap.Int("row_count", result.RowCount),
			zap.Bool("truncated", result.Truncated),
			zap.Duration("elapsed", elapsed),
		)
		s.record(result, raw, "success", elapsed)
	case *TimeoutError:
		metrics.QueryTotal.WithLabelValues("timeout").Inc()
		logger.Warn("Query timed out", zap.String("query", normalized), zap.Duration("elapsed", elapsed))
		s.record(result, raw, "timeout", elapsed)
	default:
		metrics.QueryTotal.WithLabelValues("error").Inc()
		logger.Error("Query failed", zap.String("query", normalized), zap.Error(err))
		s.record(result, raw, "error", elapsed)
	}

	return result
}

func (s *Service) record(result *Result, raw, status string, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	rec := &models.QueryExecution{
		ID:        uuid.New().String(),
		RawQuery:  raw,
		Query:     result.Query,
		Status:    status,
		RowCount:  result.RowCount,
		Truncated: result.Truncated,
		Error:     result.Error,
		LatencyMS: int(elapsed.Milliseconds()),
		CreatedAt: time.Now(),
	}
	if err := s.history.RecordQuery(rec); err != nil {
		logger.Warn("Failed to record query history", zap.Error(err))
	}
}

// TableStat describes one user table for the schema sidebar.
type TableStat struct {
	TableName   string `json:"table_name"`
	RowCount    int    `json:"row_count"`
	Description string `json:"description"`
}

type Relationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type DatabaseStats struct {
	Success       bool           `json:"success"`
	TotalTables   int            `json:"total_tables"`
	TotalRows     int            `json:"total_rows"`
	Tables        []TableStat    `json:"tables"`
	Relationships []Relationship `json:"relationships"`
	Error         string         `json:"error,omitempty"`
}

var tableDescriptions = map[string]string{
	"branches":                 "Bank branch locations and contact information",
	"customers":                "Customer personal and financial information",
	"accounts":                 "Bank accounts (checking, savings, etc.) with balances",
	"transactions":             "All account transactions and transfers",
	"credit_cards":             "Credit card information and limits",
	"credit_card_transactions": "Credit card purchases and payments",
	"loans":                    "Loan information (mortgages, personal, auto loans)",
	"loan_payments":            "Individual loan payment records",
}

var schemaRelationships = []Relationship{
	{From: "customers", To: "accounts", Type: "one-to-many"},
	{From: "customers", To: "credit_cards", Type: "one-to-many"},
	{From: "customers", To: "loans", Type: "one-to-many"},
	{From: "accounts", To: "transactions", Type: "one-to-many"},
	{From: "credit_cards", To: "credit_card_transactions", Type: "one-to-many"},
	{From: "loans", To: "loan_payments", Type: "one-to-many"},
	{From: "branches", To: "customers", Type: "one-to-many"},
	{From: "branches", To: "accounts", Type: "one-to-many"},
}

// GetDatabaseStats lists user tables with row counts. Internal bookkeeping
// tables are hidden from the sidebar.
func (s *Service) GetDatabaseStats() *DatabaseStats {
	rows, err := s.db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return &DatabaseStats{Success: false, Error: err.Error()}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return &DatabaseStats{Success: false, Error: err.Error()}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return &DatabaseStats{Success: false, Error: err.Error()}
	}

	stats := &DatabaseStats{Success: true, Relationships: schemaRelationships}
	for _, name := range names {
		if isInternalTable(name) {
			continue
		}
		var count int
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&count); err != nil {
			logger.Warn("Failed to count table rows", zap.String("table", name), zap.Error(err))
			continue
		}
		desc, ok := tableDescriptions[name]
		if !ok {
			desc = fmt.Sprintf("Database table: %s", name)
		}
		stats.Tables = append(stats.Tables, TableStat{TableName: name, RowCount: count, Description: desc})
		stats.TotalRows += count
	}
	stats.TotalTables = len(stats.Tables)

	return stats
}

func isInternalTable(name string) bool {
	switch name {
	case "analysis_reports", "data_insights", "query_history":
		return true
	}
	return false
}

// TestConnection issues a trivial probe against the data source.
func (s *Service) TestConnection() error {
	var one int
	if err := s.db.QueryRow("SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	return nil
}
