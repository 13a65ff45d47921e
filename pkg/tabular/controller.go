package tabular

// ViewController is the thin stateful adapter between a presentation
// surface and the pure engine: it owns the current Result and ViewState and
// re-invokes ComputeView after every state change. Results are replaced,
// never mutated; replacing one resets the view state per the filter
// lifecycle rules.
//
// ViewController is not safe for concurrent use; each view owns exactly
// one.
type ViewController struct {
	result *Result
	state  ViewState
}

// NewViewController creates a controller with a fixed page size and no
// result yet.
func NewViewController(pageSize int) *ViewController {
	return &ViewController{state: ViewState{Page: 1, PageSize: pageSize}}
}

// Replace installs a fresh result, superseding the previous one, and
// resets search, filters, sort, and page.
func (c *ViewController) Replace(r *Result) {
	c.result = r
	c.state.Reset()
}

// Result returns the currently installed result, which may be nil.
func (c *ViewController) Result() *Result { return c.result }

// Columns returns the current result's column names.
func (c *ViewController) Columns() []string {
	if c.result == nil {
		return nil
	}
	return c.result.Columns
}

// State returns a copy of the current view state.
func (c *ViewController) State() ViewState { return c.state }

// SetSearch updates the search term and snaps back to the first page.
func (c *ViewController) SetSearch(term string) {
	c.state.Search = term
	c.state.Page = 1
}

// SetFilter updates one column filter (empty value removes it) and snaps
// back to the first page. Pagination state otherwise survives filter edits.
func (c *ViewController) SetFilter(column int, value, operator string) {
	c.state.SetFilter(column, value, operator)
	c.state.Page = 1
}

// ClearFilters drops all column filters.
func (c *ViewController) ClearFilters() {
	c.state.Filters = nil
	c.state.Page = 1
}

// ToggleSort applies the header-click sort rule to the named column.
func (c *ViewController) ToggleSort(column string) {
	c.state.ToggleSort(column)
}

// SetPage moves to the requested page; the subsequent View call clamps it.
func (c *ViewController) SetPage(page int) {
	c.state.Page = page
}

// View computes the current window, clamping the page first so the
// returned page is never past the end of the filtered set.
func (c *ViewController) View() View {
	if c.result == nil {
		return View{}
	}
	probe := ComputeView(c.result, ViewState{
		Search:  c.state.Search,
		Filters: c.state.Filters,
	})
	if c.state.PageSize > 0 {
		totalPages := (probe.FilteredCount + c.state.PageSize - 1) / c.state.PageSize
		c.state.ClampPage(totalPages)
	}
	return ComputeView(c.result, c.state)
}

// FilteredRows returns the complete filtered and sorted set without
// pagination, in page order. This is what a current-view export serializes.
func (c *ViewController) FilteredRows() [][]Scalar {
	if c.result == nil {
		return nil
	}
	unpaged := c.state
	unpaged.PageSize = 0
	return ComputeView(c.result, unpaged).Rows
}
