package analytics

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bankiq/backend/internal/database"
)

const (
	chartWidth    = 1024
	chartHeight   = 512
	histogramBins = 20
	barTopN       = 20
)

// RenderVisualization draws a planned chart over an execution result and
// returns the PNG bytes. The plan's column names must exist in the result.
func RenderVisualization(plan Visualization, result *database.Result) ([]byte, error) {
	f := buildFrame(result)

	switch plan.Type {
	case "histogram":
		col := f.columnByName(plan.XColumn)
		if col == nil {
			return nil, fmt.Errorf("unknown column: %s", plan.XColumn)
		}
		return renderHistogram(plan.Title, col)
	case "bar":
		col := f.columnByName(plan.XColumn)
		if col == nil {
			return nil, fmt.Errorf("unknown column: %s", plan.XColumn)
		}
		return renderBar(plan.Title, col)
	case "line":
		x := f.columnByName(plan.XColumn)
		y := f.columnByName(plan.YColumn)
		if x == nil || y == nil {
			return nil, fmt.Errorf("unknown column pair: %s, %s", plan.XColumn, plan.YColumn)
		}
		return renderLine(plan.Title, x, y)
	case "scatter":
		x := f.columnByName(plan.XColumn)
		y := f.columnByName(plan.YColumn)
		if x == nil || y == nil {
			return nil, fmt.Errorf("unknown column pair: %s, %s", plan.XColumn, plan.YColumn)
		}
		return renderScatter(plan.Title, x, y)
	default:
		return nil, fmt.Errorf("unsupported chart type: %s", plan.Type)
	}
}

func (f *frame) columnByName(name string) *column {
	for _, col := range f.columns {
		if col.name == name {
			return col
		}
	}
	return nil
}

func renderHistogram(title string, col *column) ([]byte, error) {
	values := col.numbers()
	if len(values) == 0 {
		return nil, fmt.Errorf("no numeric values in column: %s", col.name)
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	bins := histogramBins
	if max == min {
		bins = 1
	}
	counts := make([]int, bins)
	width := (max - min) / float64(bins)
	for _, v := range values {
		idx := 0
		if width > 0 {
			idx = int((v - min) / width)
			if idx >= bins {
				idx = bins - 1
			}
		}
		counts[idx]++
	}

	bars := make([]chart.Value, bins)
	for i, count := range counts {
		lo := min + float64(i)*width
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%.4g", lo),
			Value: float64(count),
		}
	}

	return renderBarChart(title, bars)
}

func renderBar(title string, col *column) ([]byte, error) {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, text := range col.texts() {
		if _, seen := counts[text]; !seen {
			order = append(order, text)
		}
		counts[text]++
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no values in column: %s", col.name)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > barTopN {
		order = order[:barTopN]
	}

	bars := make([]chart.Value, len(order))
	for i, label := range order {
		bars[i] = chart.Value{Label: label, Value: float64(counts[label])}
	}

	return renderBarChart(title, bars)
}

func renderBarChart(title string, bars []chart.Value) ([]byte, error) {
	graph := chart.BarChart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: 40, Bottom: 60},
		},
		BarWidth: 30,
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderLine(title string, x, y *column) ([]byte, error) {
	pairs := pairedSeries(x, y)
	if len(pairs) < 2 {
		return nil, fmt.Errorf("not enough points for line chart: %s over %s", y.name, x.name)
	}

	times := make([]float64, len(pairs))
	values := make([]float64, len(pairs))
	for i, p := range pairs {
		times[i] = chart.TimeToFloat64(time.Unix(0, p.at))
		values[i] = p.value
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: 40},
		},
		XAxis: chart.XAxis{
			Name:           x.name,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{Name: y.name},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: times,
				YValues: values,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
				},
			},
		},
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderScatter(title string, x, y *column) ([]byte, error) {
	xs, ys := pairedNumbers(x, y)
	if len(xs) < 2 {
		return nil, fmt.Errorf("not enough points for scatter chart: %s vs %s", x.name, y.name)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: 40},
		},
		XAxis: chart.XAxis{Name: x.name},
		YAxis: chart.YAxis{Name: y.name},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    drawing.ColorBlue,
				},
			},
		},
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}
