package database

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/storage/models"
)

type recordingHistory struct {
	records []*models.QueryExecution
}

func (h *recordingHistory) RecordQuery(rec *models.QueryExecution) error {
	h.records = append(h.records, rec)
	return nil
}

func TestExecuteSafeQueryRejection(t *testing.T) {
	history := &recordingHistory{}
	// nil DB: a rejected query must never reach the executor.
	svc := NewService(nil, 10, time.Second, history)

	result := svc.ExecuteSafeQuery("DROP TABLE customers")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "forbidden keyword")
	assert.Equal(t, 0, result.RowCount)

	require.Len(t, history.records, 1)
	assert.Equal(t, "rejected", history.records[0].Status)
	assert.Equal(t, "DROP TABLE customers", history.records[0].RawQuery)
}

func TestExecuteSafeQuerySuccess(t *testing.T) {
	db := openFakeDB(t, &fakeConn{
		columns: []string{"total"},
		rows:    [][]driver.Value{{int64(42)}},
	})
	history := &recordingHistory{}
	svc := NewService(db, 10, time.Second, history)

	result := svc.ExecuteSafeQuery("select count(*) as total from customers")

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RowCount)
	assert.Contains(t, result.Query, "LIMIT 10")

	require.Len(t, history.records, 1)
	assert.Equal(t, "success", history.records[0].Status)
	assert.Equal(t, 1, history.records[0].RowCount)
	assert.NotEmpty(t, history.records[0].ID)
}

func TestExecuteSafeQueryNeverPanicsWithoutHistory(t *testing.T) {
	svc := NewService(nil, 10, time.Second, nil)

	assert.NotPanics(t, func() {
		result := svc.ExecuteSafeQuery("TRUNCATE customers")
		assert.False(t, result.Success)
	})
}
