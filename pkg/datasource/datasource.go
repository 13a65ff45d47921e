// Package datasource executes saved report SQL against the customer's
// reporting database. Executors wrap arbitrary SELECT statements as
// subqueries so limits and filter conditions can be applied without
// parsing the statement itself.
package datasource

import (
	"context"
	"fmt"
)

// MaxQueryLimit caps how many rows any query may return. Unbounded result
// sets belong to the export path, which streams the full dataset.
const MaxQueryLimit = 1000

// Supported drivers.
const (
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
)

// Result holds an executed query's columns in select order and its rows as
// positional values.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Executor runs read-only SQL against the reporting database.
type Executor interface {
	// Query runs sqlQuery bounded to limit rows. limit <= 0 or above
	// MaxQueryLimit is clamped to MaxQueryLimit.
	Query(ctx context.Context, sqlQuery string, limit int) (*Result, error)

	// QueryFiltered wraps sqlQuery as a subquery, applies the filter
	// conditions as a parameterized WHERE clause, and bounds the result
	// like Query.
	QueryFiltered(ctx context.Context, sqlQuery string, filters *FilterSet, limit int) (*Result, error)

	// QueryAll runs sqlQuery with filters applied and no row limit. Only
	// the export path may call it; interactive reads go through Query.
	QueryAll(ctx context.Context, sqlQuery string, filters *FilterSet) (*Result, error)

	// Count returns the number of rows sqlQuery produces under the given
	// filters, without the row limit.
	Count(ctx context.Context, sqlQuery string, filters *FilterSet) (int, error)

	// Validate checks sqlQuery against the database without running it.
	Validate(ctx context.Context, sqlQuery string) error

	Close()
}

// New creates an executor for the configured driver.
func New(ctx context.Context, driver, dsn string) (Executor, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresExecutor(ctx, dsn)
	case DriverSQLServer:
		return NewSQLServerExecutor(dsn)
	default:
		return nil, fmt.Errorf("unsupported datasource driver %q", driver)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
