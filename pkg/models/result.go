package models

// TableData is the wire form of a rectangular query result. Data rows are
// positionally aligned to Columns; TotalCount is the authoritative dataset
// size, which may exceed len(Data) when the server caps the window.
type TableData struct {
	Columns    []string `json:"columns"`
	Data       [][]any  `json:"data"`
	TotalCount int      `json:"total_count"`
}

// ChartData is the wire form of a chart-shaped query result, matching what
// charting frontends consume directly.
type ChartData struct {
	Labels   []string         `json:"labels"`
	Datasets []map[string]any `json:"datasets"`
}

// QueryResult is the execution response envelope: exactly one of the data
// fields is set on success, Error is set on failure. Execution errors are
// reported in-band so a failed widget never blanks the page.
type QueryResult struct {
	Success       bool           `json:"success"`
	Table         *TableData     `json:"data,omitempty"`
	Chart         *ChartData     `json:"chart_data,omitempty"`
	ChartType     string         `json:"chart_type,omitempty"`
	ChartConfig   map[string]any `json:"chart_config,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime float64        `json:"execution_time,omitempty"`
}

// APIResponse is the generic success/data/error envelope used by the
// CRUD endpoints.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
