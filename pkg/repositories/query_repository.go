package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/database"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

// QueryRepository provides data access for saved report queries.
type QueryRepository interface {
	Create(ctx context.Context, query *models.Query) error
	Update(ctx context.Context, query *models.Query) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Query, error)
	List(ctx context.Context) ([]*models.Query, error)
	ListByMenuItem(ctx context.Context, menuItemID int64) ([]*models.Query, error)
	// DistinctRoles returns every role assignment string in use across
	// queries, for stale role detection.
	DistinctRoles(ctx context.Context) ([]string, error)
	// ReplaceRole rewrites the role column of every query whose assignment
	// matches old, used when a role is renamed or deleted.
	ReplaceRole(ctx context.Context, id int64, newRole string) error
}

type queryRepository struct {
	db *database.DB
}

// NewQueryRepository creates a new QueryRepository.
func NewQueryRepository(db *database.DB) QueryRepository {
	return &queryRepository{db: db}
}

var _ QueryRepository = (*queryRepository)(nil)

func (r *queryRepository) Create(ctx context.Context, query *models.Query) error {
	now := time.Now()

	sql := `
		INSERT INTO queries (
			name, description, sql_query, chart_type, chart_config,
			menu_item_id, role, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		query.Name,
		query.Description,
		query.SQLQuery,
		nullIfEmpty(query.ChartType),
		chartConfigValue(query.ChartConfig),
		query.MenuItemID,
		nullIfEmpty(query.Role),
		now,
		now,
	).Scan(&query.ID, &query.CreatedAt, &query.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}

	return nil
}

func (r *queryRepository) Update(ctx context.Context, query *models.Query) error {
	sql := `
		UPDATE queries
		SET name = $2, description = $3, sql_query = $4, chart_type = $5,
		    chart_config = $6, menu_item_id = $7, role = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, sql,
		query.ID,
		query.Name,
		query.Description,
		query.SQLQuery,
		nullIfEmpty(query.ChartType),
		chartConfigValue(query.ChartConfig),
		query.MenuItemID,
		nullIfEmpty(query.Role),
	).Scan(&query.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update query: %w", err)
	}

	return nil
}

func (r *queryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM queries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *queryRepository) GetByID(ctx context.Context, id int64) (*models.Query, error) {
	row := r.db.QueryRow(ctx, querySelect+` WHERE id = $1`, id)
	query, err := scanQuery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return query, nil
}

func (r *queryRepository) List(ctx context.Context) ([]*models.Query, error) {
	return r.list(ctx, querySelect+` ORDER BY name`)
}

func (r *queryRepository) ListByMenuItem(ctx context.Context, menuItemID int64) ([]*models.Query, error) {
	return r.list(ctx, querySelect+` WHERE menu_item_id = $1 ORDER BY name`, menuItemID)
}

func (r *queryRepository) list(ctx context.Context, sql string, args ...any) ([]*models.Query, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved queries: %w", err)
	}
	defer rows.Close()

	var queries []*models.Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved queries: %w", err)
	}

	return queries, nil
}

func (r *queryRepository) DistinctRoles(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT role FROM queries WHERE role IS NOT NULL AND role <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct roles: %w", err)
	}
	defer rows.Close()

	var roleLists []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roleLists = append(roleLists, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roleLists, nil
}

func (r *queryRepository) ReplaceRole(ctx context.Context, id int64, newRole string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE queries SET role = $2, updated_at = now() WHERE id = $1`,
		id, nullIfEmpty(newRole))
	if err != nil {
		return fmt.Errorf("failed to update query role: %w", err)
	}
	return nil
}

const querySelect = `
	SELECT id, name, description, sql_query, chart_type, chart_config,
	       menu_item_id, role, created_at, updated_at
	FROM queries`

func scanQuery(row pgx.Row) (*models.Query, error) {
	var q models.Query
	var chartType, role *string
	var chartConfig []byte

	err := row.Scan(
		&q.ID,
		&q.Name,
		&q.Description,
		&q.SQLQuery,
		&chartType,
		&chartConfig,
		&q.MenuItemID,
		&role,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan saved query: %w", err)
	}

	if chartType != nil {
		q.ChartType = *chartType
	}
	if role != nil {
		q.Role = *role
	}
	if len(chartConfig) > 0 && string(chartConfig) != "null" {
		if err := json.Unmarshal(chartConfig, &q.ChartConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chart_config: %w", err)
		}
	}

	return &q, nil
}

// nullIfEmpty returns nil for empty strings so the column stores NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// chartConfigValue stores NULL for empty configs.
func chartConfigValue(cfg map[string]any) any {
	if len(cfg) == 0 {
		return nil
	}
	return cfg
}
