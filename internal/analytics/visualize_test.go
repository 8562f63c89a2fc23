package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/database"
)

func TestPlanVisualizationsPriorityOrder(t *testing.T) {
	result := makeResult(
		[]string{"amount", "segment", "day"},
		[][]database.Value{
			{float64(10), "retail", "2025-01-01"},
			{float64(20), "premium", "2025-01-02"},
		},
	)

	plans := planVisualizations(buildFrame(result), 8)

	require.Len(t, plans, 3)
	assert.Equal(t, "histogram", plans[0].Type)
	assert.Equal(t, "amount", plans[0].XColumn)
	assert.Equal(t, "bar", plans[1].Type)
	assert.Equal(t, "segment", plans[1].XColumn)
	assert.Equal(t, "line", plans[2].Type)
	assert.Equal(t, "day", plans[2].XColumn)
	assert.Equal(t, "amount", plans[2].YColumn)
}

func TestPlanVisualizationsScatterPairs(t *testing.T) {
	result := makeResult(
		[]string{"x", "y"},
		[][]database.Value{
			{float64(1), float64(2)},
			{float64(3), float64(4)},
		},
	)

	plans := planVisualizations(buildFrame(result), 8)

	require.Len(t, plans, 3)
	assert.Equal(t, "histogram", plans[0].Type)
	assert.Equal(t, "histogram", plans[1].Type)
	assert.Equal(t, "scatter", plans[2].Type)
	assert.Equal(t, "x", plans[2].XColumn)
	assert.Equal(t, "y", plans[2].YColumn)
}

func TestPlanVisualizationsCap(t *testing.T) {
	columns := make([]string, 10)
	for i := range columns {
		columns[i] = fmt.Sprintf("n%d", i)
	}
	row := make([]database.Value, 10)
	for i := range row {
		row[i] = float64(i)
	}

	plans := planVisualizations(buildFrame(makeResult(columns, [][]database.Value{row})), 8)

	require.Len(t, plans, 8)
	for _, p := range plans {
		assert.Equal(t, "histogram", p.Type)
	}
}

func TestPlanVisualizationsSkipsWideCategorical(t *testing.T) {
	var rows [][]database.Value
	for i := 0; i < 25; i++ {
		rows = append(rows, []database.Value{fmt.Sprintf("cat-%d", i)})
	}

	plans := planVisualizations(buildFrame(makeResult([]string{"category"}, rows)), 8)
	assert.Empty(t, plans)
}
