package analytics

import "fmt"

// planVisualizations maps column-kind combinations to chart configurations
// in fixed priority order: histograms, bar charts, time series, scatter
// plots. Emission stops at the cap; earlier charts are never evicted.
func planVisualizations(f *frame, topK int) []Visualization {
	var plans []Visualization

	add := func(v Visualization) bool {
		if len(plans) >= topK {
			return false
		}
		plans = append(plans, v)
		return true
	}

	numericCols := f.columnsOfKind(KindNumeric)
	categoricalCols := f.columnsOfKind(KindCategorical)
	temporalCols := f.columnsOfKind(KindTemporal)

	for _, col := range numericCols {
		if !add(Visualization{
			Type:        "histogram",
			Title:       fmt.Sprintf("Distribution of %s", col.name),
			XColumn:     col.name,
			Description: fmt.Sprintf("Shows the frequency distribution of %s values", col.name),
		}) {
			return plans
		}
	}

	for _, col := range categoricalCols {
		if uniqueCount(col) > 20 {
			continue
		}
		if !add(Visualization{
			Type:        "bar",
			Title:       fmt.Sprintf("Count by %s", col.name),
			XColumn:     col.name,
			Description: fmt.Sprintf("Shows count of records for each %s category", col.name),
		}) {
			return plans
		}
	}

	for _, dateCol := range temporalCols {
		for _, numCol := range numericCols {
			if !add(Visualization{
				Type:        "line",
				Title:       fmt.Sprintf("%s over time", numCol.name),
				XColumn:     dateCol.name,
				YColumn:     numCol.name,
				Description: fmt.Sprintf("Shows how %s changes over %s", numCol.name, dateCol.name),
			}) {
				return plans
			}
		}
	}

	for i := 0; i < len(numericCols); i++ {
		for j := i + 1; j < len(numericCols); j++ {
			if !add(Visualization{
				Type:        "scatter",
				Title:       fmt.Sprintf("%s vs %s", numericCols[i].name, numericCols[j].name),
				XColumn:     numericCols[i].name,
				YColumn:     numericCols[j].name,
				Description: fmt.Sprintf("Shows relationship between %s and %s", numericCols[i].name, numericCols[j].name),
			}) {
				return plans
			}
		}
	}

	return plans
}

func uniqueCount(col *column) int {
	seen := make(map[string]bool)
	for _, c := range col.cells {
		if !c.null {
			seen[c.text] = true
		}
	}
	return len(seen)
}
