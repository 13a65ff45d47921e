package models

import "time"

// Chart types a saved query may render as. "table" (or empty) means the
// result is shown as a data table.
const (
	ChartTable    = "table"
	ChartPie      = "pie"
	ChartDoughnut = "doughnut"
	ChartBar      = "bar"
	ChartLine     = "line"
	ChartKPI      = "kpi"
)

// Query is a saved, parameterless SQL report definition. Role is a
// comma-separated list of canonical role codes; empty means unrestricted.
type Query struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	SQLQuery    string         `json:"sql_query"`
	ChartType   string         `json:"chart_type,omitempty"`
	ChartConfig map[string]any `json:"chart_config,omitempty"`
	MenuItemID  *int64         `json:"menu_item_id,omitempty"`
	Role        string         `json:"role,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsChart reports whether execution should produce chart-shaped data
// instead of a table.
func (q *Query) IsChart() bool {
	return q.ChartType != "" && q.ChartType != ChartTable
}
