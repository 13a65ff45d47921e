package datasource

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresExecutor runs reporting queries over a pgx pool.
type PostgresExecutor struct {
	pool *pgxpool.Pool
}

// NewPostgresExecutor connects to a PostgreSQL reporting database.
func NewPostgresExecutor(ctx context.Context, dsn string) (*PostgresExecutor, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to reporting database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping reporting database: %w", err)
	}
	return &PostgresExecutor{pool: pool}, nil
}

func (e *PostgresExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*Result, error) {
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", sqlQuery, clampLimit(limit))
	return e.run(ctx, wrapped, nil)
}

func (e *PostgresExecutor) QueryFiltered(ctx context.Context, sqlQuery string, filters *FilterSet, limit int) (*Result, error) {
	filtered, args, err := buildFiltered(sqlQuery, filters, sq.Dollar)
	if err != nil {
		return nil, err
	}
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", filtered, clampLimit(limit))
	return e.run(ctx, wrapped, args)
}

func (e *PostgresExecutor) QueryAll(ctx context.Context, sqlQuery string, filters *FilterSet) (*Result, error) {
	filtered, args, err := buildFiltered(sqlQuery, filters, sq.Dollar)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, filtered, args)
}

func (e *PostgresExecutor) Count(ctx context.Context, sqlQuery string, filters *FilterSet) (int, error) {
	filtered, args, err := buildFiltered(sqlQuery, filters, sq.Dollar)
	if err != nil {
		return 0, err
	}
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) AS _counted", filtered)

	var count int
	if err := e.pool.QueryRow(ctx, countSQL, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count query results: %w", err)
	}
	return count, nil
}

// Validate checks the query with EXPLAIN, which plans without executing.
func (e *PostgresExecutor) Validate(ctx context.Context, sqlQuery string) error {
	if _, err := e.pool.Exec(ctx, "EXPLAIN "+sqlQuery); err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return nil
}

func (e *PostgresExecutor) Close() {
	e.pool.Close()
}

func (e *PostgresExecutor) run(ctx context.Context, sqlQuery string, args []any) (*Result, error) {
	rows, err := e.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make([]any, len(values))
		copy(row, values)
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &Result{Columns: columns, Rows: resultRows}, nil
}

var _ Executor = (*PostgresExecutor)(nil)
