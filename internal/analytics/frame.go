package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bankiq/backend/internal/database"
)

// cell is one parsed value. The parse flags record what the value could be
// read as; the owning column's kind decides which reading is used.
type cell struct {
	null   bool
	text   string
	num    float64
	ts     time.Time
	isNum  bool
	isTime bool
}

// column carries the inferred kind tag and the parsed cells in row order.
type column struct {
	name  string
	kind  ColumnKind
	cells []cell
}

type frame struct {
	rowCount int
	columns  []*column
}

var temporalLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

func parseTemporal(s string) (time.Time, bool) {
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseCell(v database.Value) cell {
	if v == nil {
		return cell{null: true}
	}

	switch val := v.(type) {
	case float64:
		return cell{num: val, isNum: true, text: strconv.FormatFloat(val, 'g', -1, 64)}
	case int64:
		return cell{num: float64(val), isNum: true, text: strconv.FormatInt(val, 10)}
	case int:
		return cell{num: float64(val), isNum: true, text: strconv.Itoa(val)}
	case bool:
		return cell{text: strconv.FormatBool(val)}
	case string:
		c := cell{text: val}
		trimmed := strings.TrimSpace(val)
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			c.num = f
			c.isNum = true
		}
		if t, ok := parseTemporal(trimmed); ok {
			c.ts = t
			c.isTime = true
		}
		return c
	default:
		return cell{text: fmt.Sprint(val)}
	}
}

// buildFrame parses every cell once and infers each column's kind from its
// observed non-null values: numeric if all parse as numbers, temporal if all
// parse as date/time, categorical otherwise, unknown when no values exist.
func buildFrame(result *database.Result) *frame {
	f := &frame{rowCount: len(result.Rows)}

	for colIdx, name := range result.Columns {
		col := &column{name: name, cells: make([]cell, len(result.Rows))}

		nonNull := 0
		allNum := true
		allTime := true
		for rowIdx, row := range result.Rows {
			var v database.Value
			if colIdx < len(row) {
				v = row[colIdx]
			}
			c := parseCell(v)
			col.cells[rowIdx] = c
			if c.null {
				continue
			}
			nonNull++
			if !c.isNum {
				allNum = false
			}
			if !c.isTime {
				allTime = false
			}
		}

		switch {
		case nonNull == 0:
			col.kind = KindUnknown
		case allNum:
			col.kind = KindNumeric
		case allTime:
			col.kind = KindTemporal
		default:
			col.kind = KindCategorical
		}

		f.columns = append(f.columns, col)
	}

	return f
}

func (c *column) missingCount() int {
	n := 0
	for _, cl := range c.cells {
		if cl.null {
			n++
		}
	}
	return n
}

func (c *column) numbers() []float64 {
	var out []float64
	for _, cl := range c.cells {
		if !cl.null && cl.isNum {
			out = append(out, cl.num)
		}
	}
	return out
}

func (c *column) texts() []string {
	var out []string
	for _, cl := range c.cells {
		if !cl.null {
			out = append(out, cl.text)
		}
	}
	return out
}

func (c *column) times() []time.Time {
	var out []time.Time
	for _, cl := range c.cells {
		if !cl.null && cl.isTime {
			out = append(out, cl.ts)
		}
	}
	return out
}

func (f *frame) columnsOfKind(kind ColumnKind) []*column {
	var out []*column
	for _, col := range f.columns {
		if col.kind == kind {
			out = append(out, col)
		}
	}
	return out
}
