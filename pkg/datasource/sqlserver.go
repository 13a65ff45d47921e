package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/microsoft/go-mssqldb"
)

// SQLServerExecutor runs reporting queries against SQL Server through the
// standard database/sql interface.
type SQLServerExecutor struct {
	db *sql.DB
}

// NewSQLServerExecutor connects to a SQL Server reporting database.
func NewSQLServerExecutor(dsn string) (*SQLServerExecutor, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to reporting database: %w", err)
	}
	return &SQLServerExecutor{db: db}, nil
}

func (e *SQLServerExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*Result, error) {
	wrapped := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", clampLimit(limit), sqlQuery)
	return e.run(ctx, wrapped, nil)
}

func (e *SQLServerExecutor) QueryFiltered(ctx context.Context, sqlQuery string, filters *FilterSet, limit int) (*Result, error) {
	filtered, args, err := buildFiltered(sqlQuery, filters, sq.AtP)
	if err != nil {
		return nil, err
	}
	wrapped := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", clampLimit(limit), filtered)
	return e.run(ctx, wrapped, args)
}

func (e *SQLServerExecutor) QueryAll(ctx context.Context, sqlQuery string, filters *FilterSet) (*Result, error) {
	filtered, args, err := buildFiltered(sqlQuery, filters, sq.AtP)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, filtered, args)
}

func (e *SQLServerExecutor) Count(ctx context.Context, sqlQuery string, filters *FilterSet) (int, error) {
	filtered, args, err := buildFiltered(sqlQuery, filters, sq.AtP)
	if err != nil {
		return 0, err
	}
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) AS _counted", filtered)

	var count int
	if err := e.db.QueryRowContext(ctx, countSQL, namedArgs(args)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count query results: %w", err)
	}
	return count, nil
}

// Validate plans the query via SHOWPLAN without executing it.
func (e *SQLServerExecutor) Validate(ctx context.Context, sqlQuery string) error {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET SHOWPLAN_XML ON"); err != nil {
		return fmt.Errorf("enable plan-only mode: %w", err)
	}
	_, execErr := conn.ExecContext(ctx, sqlQuery)
	_, _ = conn.ExecContext(ctx, "SET SHOWPLAN_XML OFF")
	if execErr != nil {
		return fmt.Errorf("invalid SQL: %w", execErr)
	}
	return nil
}

func (e *SQLServerExecutor) Close() {
	_ = e.db.Close()
}

func (e *SQLServerExecutor) run(ctx context.Context, sqlQuery string, args []any) (*Result, error) {
	rows, err := e.db.QueryContext(ctx, sqlQuery, namedArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			// Text columns arrive as []byte from the driver.
			if b, ok := val.([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
				values[i] = string(b)
			}
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &Result{Columns: columns, Rows: resultRows}, nil
}

// namedArgs converts squirrel's @p1-style positional args into the named
// parameters the mssql driver expects.
func namedArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = sql.Named(fmt.Sprintf("p%d", i+1), a)
	}
	return out
}

func isStringType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML":
		return true
	default:
		return false
	}
}

var _ Executor = (*SQLServerExecutor)(nil)
