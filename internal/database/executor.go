package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Value is the portable form of a retrieved cell: nil, float64/int64 numbers,
// string text, bool, or an ISO-8601 string for temporal values.
type Value = interface{}

// Result is the flat outcome of one bounded execution. RowCount never
// exceeds the configured row cap and every row is aligned to Columns.
type Result struct {
	Success   bool      `json:"success"`
	Query     string    `json:"query"`
	Columns   []string  `json:"columns"`
	Rows      [][]Value `json:"rows"`
	RowCount  int       `json:"row_count"`
	Truncated bool      `json:"truncated"`
	Error     string    `json:"error,omitempty"`
}

// Executor runs a validated query on its own worker goroutine and joins it
// with a wall-clock timeout. On timeout the wait is abandoned: the worker is
// not forcibly stopped and may keep running until the data source gives up.
type Executor struct {
	db      *sql.DB
	maxRows int
	timeout time.Duration
}

func NewExecutor(db *sql.DB, maxRows int, timeout time.Duration) *Executor {
	return &Executor{
		db:      db,
		maxRows: maxRows,
		timeout: timeout,
	}
}

type queryOutcome struct {
	columns   []string
	rows      [][]Value
	truncated bool
	err       error
}

func (e *Executor) Execute(query string) (*Result, error) {
	outcome := make(chan queryOutcome, 1)

	go func() {
		outcome <- e.runQuery(query)
	}()

	select {
	case out := <-outcome:
		if out.err != nil {
			execErr := &ExecutionError{Err: out.err}
			return &Result{Success: false, Query: query, Error: execErr.Error()}, execErr
		}
		return &Result{
			Success:   true,
			Query:     query,
			Columns:   out.columns,
			Rows:      out.rows,
			RowCount:  len(out.rows),
			Truncated: out.truncated,
		}, nil
	case <-time.After(e.timeout):
		timeoutErr := &TimeoutError{Timeout: e.timeout}
		return &Result{Success: false, Query: query, Error: timeoutErr.Error()}, timeoutErr
	}
}

// runQuery is the worker body. It deliberately takes no context: once the
// caller abandons the join there is nobody left to cancel on behalf of.
func (e *Executor) runQuery(query string) queryOutcome {
	rows, err := e.db.Query(query)
	if err != nil {
		return queryOutcome{err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return queryOutcome{err: fmt.Errorf("failed to read column names: %w", err)}
	}

	var (
		collected [][]Value
		truncated bool
	)

	for rows.Next() {
		if len(collected) == e.maxRows {
			truncated = true
			break
		}

		raw := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return queryOutcome{err: fmt.Errorf("failed to scan row: %w", err)}
		}

		row := make([]Value, len(columns))
		for i, v := range raw {
			row[i] = serializeValue(v)
		}
		collected = append(collected, row)
	}

	if err := rows.Err(); err != nil {
		return queryOutcome{err: err}
	}

	return queryOutcome{columns: columns, rows: collected, truncated: truncated}
}

// serializeValue converts driver values into the portable Value form:
// temporal values become ISO-8601 strings, byte slices become text, nulls
// are preserved, everything else passes through.
func serializeValue(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
