package services

import (
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/tabular"
)

// chartPalette provides the default series colors, cycled when a result
// has more series than colors.
var chartPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// shapeChart converts a rectangular result into chart form. The first
// column supplies labels; every remaining column becomes a dataset with
// cells coerced to numbers, zero when not numeric. KPI charts reduce to a
// single value from the first cell.
func shapeChart(result *datasource.Result, chartType string) *models.ChartData {
	if chartType == models.ChartKPI {
		return kpiChart(result)
	}
	if len(result.Columns) == 0 {
		return &models.ChartData{Labels: []string{}, Datasets: []map[string]any{}}
	}

	labels := make([]string, len(result.Rows))
	for i, row := range result.Rows {
		if len(row) > 0 {
			labels[i] = tabular.FromAny(row[0]).DisplayString()
		}
	}

	datasets := make([]map[string]any, 0, len(result.Columns)-1)
	for col := 1; col < len(result.Columns); col++ {
		values := make([]float64, len(result.Rows))
		for i, row := range result.Rows {
			if col < len(row) {
				if n, ok := tabular.FromAny(row[col]).Numeric(); ok {
					values[i] = n
				}
			}
		}
		datasets = append(datasets, map[string]any{
			"label":           result.Columns[col],
			"data":            values,
			"backgroundColor": seriesColors(chartType, col-1, len(result.Rows)),
		})
	}

	return &models.ChartData{Labels: labels, Datasets: datasets}
}

// kpiChart reduces a result to its first cell. Missing or non-numeric
// values read as zero.
func kpiChart(result *datasource.Result) *models.ChartData {
	var value float64
	if len(result.Rows) > 0 && len(result.Rows[0]) > 0 {
		if n, ok := tabular.FromAny(result.Rows[0][0]).Numeric(); ok {
			value = n
		}
	}
	return &models.ChartData{
		Labels: []string{},
		Datasets: []map[string]any{
			{"data": []float64{value}},
		},
	}
}

// seriesColors colors pie and doughnut slices per label, other chart types
// per series.
func seriesColors(chartType string, series, sliceCount int) any {
	if chartType == models.ChartPie || chartType == models.ChartDoughnut {
		colors := make([]string, sliceCount)
		for i := range colors {
			colors[i] = chartPalette[i%len(chartPalette)]
		}
		return colors
	}
	return chartPalette[series%len(chartPalette)]
}
