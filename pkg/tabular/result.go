package tabular

// Result is the immutable in-memory form of one query execution response.
// Rows are positionally aligned to Columns and keep server order until a
// client sort is applied. TotalCount is the authoritative server-side row
// count and may exceed len(Rows) when the server caps output.
type Result struct {
	Columns    []string
	Rows       [][]Scalar
	TotalCount int
}

// NewResult builds a Result from raw driver/JSON values. The result source
// is only partially trusted: rows shorter than the column set are padded
// with nulls and longer rows are truncated, so a malformed row can never
// break view computation. TotalCount is raised to len(rows) when the server
// reports less than the window it returned.
func NewResult(columns []string, rows [][]any, totalCount int) *Result {
	width := len(columns)
	out := make([][]Scalar, 0, len(rows))
	for _, raw := range rows {
		row := make([]Scalar, width)
		for i := 0; i < width; i++ {
			if i < len(raw) {
				row[i] = FromAny(raw[i])
			} else {
				row[i] = Null()
			}
		}
		out = append(out, row)
	}
	if totalCount < len(out) {
		totalCount = len(out)
	}
	return &Result{Columns: columns, Rows: out, TotalCount: totalCount}
}

// ColumnIndex returns the position of the named column, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
