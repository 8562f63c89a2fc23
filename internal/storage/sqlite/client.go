package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/storage/models"
	"github.com/bankiq/backend/pkg/logger"
)

// Client wraps the application database. The same handle serves two roles:
// the read-only data source the guarded executor queries, and the store for
// analysis reports and query history.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

// DB exposes the raw handle for the bounded executor.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_reports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		query_executed TEXT NOT NULL,
		raw_result TEXT,
		descriptive TEXT,
		statistical TEXT,
		visualizations TEXT,
		recommendations TEXT,
		confidence REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_session ON analysis_reports(session_id);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON analysis_reports(created_at);

	CREATE TABLE IF NOT EXISTS data_insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL,
		insight_type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		metric_name TEXT,
		metric_value REAL,
		significance REAL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (report_id) REFERENCES analysis_reports(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_insights_report ON data_insights(report_id);

	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		raw_query TEXT NOT NULL,
		query TEXT,
		status TEXT NOT NULL,
		row_count INTEGER,
		truncated INTEGER DEFAULT 0,
		error TEXT,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_status ON query_history(status);
	CREATE INDEX IF NOT EXISTS idx_history_created ON query_history(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertReport(report *models.AnalysisReport) error {
	query := `
		INSERT INTO analysis_reports (id, session_id, analysis_type, query_executed,
			raw_result, descriptive, statistical, visualizations, recommendations,
			confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		report.ID,
		report.SessionID,
		report.AnalysisType,
		report.QueryExecuted,
		report.RawResult,
		report.Descriptive,
		report.Statistical,
		report.Visualizations,
		report.Recommendations,
		report.Confidence,
		report.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis report: %w", err)
	}

	logger.Info("Analysis report stored",
		zap.String("report_id", report.ID),
		zap.String("session_id", report.SessionID),
	)
	return nil
}

func (c *Client) InsertInsight(insight *models.DataInsight) error {
	query := `
		INSERT INTO data_insights (report_id, insight_type, title, description,
			metric_name, metric_value, significance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		insight.ReportID,
		insight.InsightType,
		insight.Title,
		insight.Description,
		insight.MetricName,
		insight.MetricValue,
		insight.Significance,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}

	return nil
}

func (c *Client) GetReport(id string) (*models.AnalysisReport, error) {
	query := `
		SELECT id, session_id, analysis_type, query_executed, raw_result,
			descriptive, statistical, visualizations, recommendations,
			confidence, created_at
		FROM analysis_reports WHERE id = ?
	`

	var report models.AnalysisReport
	var createdAt int64

	err := c.db.QueryRow(query, id).Scan(
		&report.ID,
		&report.SessionID,
		&report.AnalysisType,
		&report.QueryExecuted,
		&report.RawResult,
		&report.Descriptive,
		&report.Statistical,
		&report.Visualizations,
		&report.Recommendations,
		&report.Confidence,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis report: %w", err)
	}

	report.CreatedAt = time.Unix(createdAt, 0)
	return &report, nil
}

func (c *Client) ListReports(sessionID string, limit int) ([]models.AnalysisReport, error) {
	query := `
		SELECT id, session_id, analysis_type, query_executed, confidence, created_at
		FROM analysis_reports
	`
	args := []interface{}{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis reports: %w", err)
	}
	defer rows.Close()

	var reports []models.AnalysisReport
	for rows.Next() {
		var r models.AnalysisReport
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.AnalysisType, &r.QueryExecuted, &r.Confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

func (c *Client) GetReportInsights(reportID string) ([]models.DataInsight, error) {
	query := `
		SELECT id, report_id, insight_type, title, description, metric_name,
			metric_value, significance, created_at
		FROM data_insights WHERE report_id = ? ORDER BY significance DESC
	`

	rows, err := c.db.Query(query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report insights: %w", err)
	}
	defer rows.Close()

	var insights []models.DataInsight
	for rows.Next() {
		var in models.DataInsight
		var createdAt int64
		if err := rows.Scan(&in.ID, &in.ReportID, &in.InsightType, &in.Title, &in.Description,
			&in.MetricName, &in.MetricValue, &in.Significance, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight row: %w", err)
		}
		in.CreatedAt = time.Unix(createdAt, 0)
		insights = append(insights, in)
	}

	return insights, rows.Err()
}

func (c *Client) RecordQuery(rec *models.QueryExecution) error {
	query := `
		INSERT INTO query_history (id, raw_query, query, status, row_count,
			truncated, error, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	truncated := 0
	if rec.Truncated {
		truncated = 1
	}

	_, err := c.db.Exec(
		query,
		rec.ID,
		rec.RawQuery,
		rec.Query,
		rec.Status,
		rec.RowCount,
		truncated,
		rec.Error,
		rec.LatencyMS,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record query execution: %w", err)
	}

	return nil
}

func (c *Client) GetQueryHistory(limit int) ([]models.QueryExecution, error) {
	query := `
		SELECT id, raw_query, query, status, row_count, truncated, error, latency_ms, created_at
		FROM query_history ORDER BY created_at DESC LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryExecution
	for rows.Next() {
		var r models.QueryExecution
		var truncated int
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.RawQuery, &r.Query, &r.Status, &r.RowCount,
			&truncated, &r.Error, &r.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Truncated = truncated != 0
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}
