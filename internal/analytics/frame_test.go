package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/database"
)

func makeResult(columns []string, rows [][]database.Value) *database.Result {
	return &database.Result{
		Success:  true,
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}
}

func TestBuildFrameKindInference(t *testing.T) {
	result := makeResult(
		[]string{"amount", "segment", "created_at", "mixed", "empty"},
		[][]database.Value{
			{float64(10.5), "retail", "2025-01-01", "abc", nil},
			{int64(20), "premium", "2025-02-01", float64(1), nil},
			{"30", "retail", "2025-03-01T10:00:00Z", "xyz", nil},
		},
	)

	f := buildFrame(result)
	require.Len(t, f.columns, 5)

	assert.Equal(t, KindNumeric, f.columns[0].kind)
	assert.Equal(t, KindCategorical, f.columns[1].kind)
	assert.Equal(t, KindTemporal, f.columns[2].kind)
	assert.Equal(t, KindCategorical, f.columns[3].kind)
	assert.Equal(t, KindUnknown, f.columns[4].kind)
}

func TestBuildFrameParsesNumericStrings(t *testing.T) {
	result := makeResult(
		[]string{"value"},
		[][]database.Value{{"1.5"}, {"2"}, {"-3.25"}},
	)

	f := buildFrame(result)
	require.Equal(t, KindNumeric, f.columns[0].kind)
	assert.Equal(t, []float64{1.5, 2, -3.25}, f.columns[0].numbers())
}

func TestBuildFrameCountsMissing(t *testing.T) {
	result := makeResult(
		[]string{"value"},
		[][]database.Value{{float64(1)}, {nil}, {nil}, {float64(4)}},
	)

	f := buildFrame(result)
	assert.Equal(t, 2, f.columns[0].missingCount())
	assert.Equal(t, []float64{1, 4}, f.columns[0].numbers())
	assert.Equal(t, KindNumeric, f.columns[0].kind)
}

func TestBuildFrameEmptyResult(t *testing.T) {
	f := buildFrame(makeResult([]string{"a", "b"}, nil))

	assert.Equal(t, 0, f.rowCount)
	require.Len(t, f.columns, 2)
	assert.Equal(t, KindUnknown, f.columns[0].kind)
}

func TestBuildFrameShortRowIsNull(t *testing.T) {
	result := makeResult(
		[]string{"a", "b"},
		[][]database.Value{
			{float64(1), float64(2)},
			{float64(3)},
		},
	)

	f := buildFrame(result)
	assert.Equal(t, 1, f.columns[1].missingCount())
}
