package tabular

import (
	"sort"
	"strings"
)

// Filter operators. Anything else supplied by a client degrades to OpLike.
const (
	OpEq   = "eq"
	OpLike = "like"
)

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// ColumnFilter is one per-column filter entry. An entry whose Value is
// empty is equivalent to no entry at all.
type ColumnFilter struct {
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

// SortState selects at most one sort column. A nil-equivalent state has
// Column == "".
type SortState struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// ViewState is the full, serializable presentation state for one result
// view. It is owned by whatever holds the view (see ViewController); the
// engine never mutates it.
type ViewState struct {
	Search   string               `json:"search"`
	Filters  map[int]ColumnFilter `json:"filters"`
	Sort     SortState            `json:"sort"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// View is the computed window: the page's rows plus the counts the caller
// needs to render pagination. FilteredCount counts matches within the
// loaded window only; the result's TotalCount remains the authoritative
// dataset size and the two must never be conflated.
type View struct {
	Rows          [][]Scalar
	FilteredCount int
	TotalPages    int
}

// ComputeView computes the filtered, sorted, paginated window over a
// result. Pure and deterministic: same inputs, same output, no mutation of
// result or state. Passes run in order: search, per-column filters
// (conjunctive), stable sort, page slice. A PageSize <= 0 disables
// pagination and returns the whole filtered set as one page.
func ComputeView(r *Result, state ViewState) View {
	if r == nil {
		return View{}
	}

	rows := searchPass(r.Rows, state.Search)
	rows = filterPass(rows, r, state.Filters)
	filtered := len(rows)
	rows = sortPass(rows, r, state.Sort)

	if state.PageSize <= 0 {
		pages := 0
		if filtered > 0 {
			pages = 1
		}
		return View{Rows: rows, FilteredCount: filtered, TotalPages: pages}
	}

	totalPages := (filtered + state.PageSize - 1) / state.PageSize
	page := state.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * state.PageSize
	end := start + state.PageSize
	if start > filtered {
		start = filtered
	}
	if end > filtered {
		end = filtered
	}
	return View{Rows: rows[start:end], FilteredCount: filtered, TotalPages: totalPages}
}

// searchPass retains rows where any cell's string form contains the term,
// case-insensitively. Null cells never match a non-empty term.
func searchPass(rows [][]Scalar, term string) [][]Scalar {
	if term == "" {
		return rows
	}
	needle := strings.ToLower(term)
	out := make([][]Scalar, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if cell.IsNull() {
				continue
			}
			if strings.Contains(strings.ToLower(cell.DisplayString()), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// filterPass applies every non-empty filter conjunctively. Entries with an
// out-of-range column index are ignored rather than failing the view.
func filterPass(rows [][]Scalar, r *Result, filters map[int]ColumnFilter) [][]Scalar {
	active := make(map[int]ColumnFilter)
	for col, f := range filters {
		if f.Value == "" {
			continue
		}
		if col < 0 || col >= len(r.Columns) {
			continue
		}
		active[col] = f
	}
	if len(active) == 0 {
		return rows
	}

	out := make([][]Scalar, 0, len(rows))
	for _, row := range rows {
		keep := true
		for col, f := range active {
			if !matchesFilter(row[col], f) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func matchesFilter(cell Scalar, f ColumnFilter) bool {
	cellStr := strings.ToLower(cell.DisplayString())
	value := strings.ToLower(f.Value)
	if f.Operator == OpEq {
		return strings.TrimSpace(cellStr) == strings.TrimSpace(value)
	}
	// Unknown operators degrade to substring containment.
	return strings.Contains(cellStr, value)
}

// sortPass stably sorts by the selected column. Numeric-parsable cells
// order numerically and sort ahead of everything else; the rest compare as
// case-insensitive strings. Ties keep their prior relative order, which
// itself preserves server row order.
func sortPass(rows [][]Scalar, r *Result, s SortState) [][]Scalar {
	if s.Column == "" {
		return rows
	}
	col := r.ColumnIndex(s.Column)
	if col < 0 {
		return rows
	}
	desc := strings.EqualFold(s.Direction, SortDesc)

	out := make([][]Scalar, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		less := cellLess(out[i][col], out[j][col])
		greater := cellLess(out[j][col], out[i][col])
		if desc {
			return greater
		}
		return less
	})
	return out
}

// cellLess orders the numeric class before the string class so the
// comparator stays a strict weak order on columns mixing both. Comparing
// "10" numerically against one neighbor and lexically against another
// would admit cycles, and a cyclic comparator makes the sort both wrong
// and non-idempotent.
func cellLess(a, b Scalar) bool {
	af, aok := a.Numeric()
	bf, bok := b.Numeric()
	switch {
	case aok && bok:
		return af < bf
	case aok:
		return true
	case bok:
		return false
	}
	return strings.ToLower(a.DisplayString()) < strings.ToLower(b.DisplayString())
}

// SetFilter records a filter for a column; an empty value removes the entry
// entirely, keeping "empty means absent" true by construction.
func (s *ViewState) SetFilter(column int, value, operator string) {
	if s.Filters == nil {
		s.Filters = make(map[int]ColumnFilter)
	}
	if value == "" {
		delete(s.Filters, column)
		return
	}
	if operator != OpEq {
		operator = OpLike
	}
	s.Filters[column] = ColumnFilter{Value: value, Operator: operator}
}

// ToggleSort applies the column-header click rule: a new column sorts
// ascending, the same column flips direction.
func (s *ViewState) ToggleSort(column string) {
	if s.Sort.Column == column {
		if s.Sort.Direction == SortDesc {
			s.Sort.Direction = SortAsc
		} else {
			s.Sort.Direction = SortDesc
		}
		return
	}
	s.Sort = SortState{Column: column, Direction: SortAsc}
}

// ClampPage pulls Page back into [1, totalPages] after the filtered set
// shrinks. A zero totalPages clamps to page 1.
func (s *ViewState) ClampPage(totalPages int) {
	if s.Page < 1 {
		s.Page = 1
	}
	if totalPages > 0 && s.Page > totalPages {
		s.Page = totalPages
	}
	if totalPages == 0 {
		s.Page = 1
	}
}

// Reset clears search, filters, and sort but keeps the page size. Used when
// a new result supersedes the current one.
func (s *ViewState) Reset() {
	s.Search = ""
	s.Filters = nil
	s.Sort = SortState{}
	s.Page = 1
}
