package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/database"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

// WidgetRepository provides data access for classic dashboard widgets.
type WidgetRepository interface {
	Create(ctx context.Context, widget *models.DashboardWidget) error
	Update(ctx context.Context, widget *models.DashboardWidget) error
	Delete(ctx context.Context, id int64) error
	// ListActive returns active widgets for the dashboard, or those pinned
	// to a specific menu when menuID is non-nil.
	ListActive(ctx context.Context, menuID *int64) ([]*models.DashboardWidget, error)
}

type widgetRepository struct {
	db *database.DB
}

// NewWidgetRepository creates a new WidgetRepository.
func NewWidgetRepository(db *database.DB) WidgetRepository {
	return &widgetRepository{db: db}
}

var _ WidgetRepository = (*widgetRepository)(nil)

func (r *widgetRepository) Create(ctx context.Context, widget *models.DashboardWidget) error {
	now := time.Now()

	sql := `
		INSERT INTO dashboard_widgets (
			title, query_id, menu_id, position_x, position_y,
			width, height, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		widget.Title,
		widget.QueryID,
		widget.MenuID,
		widget.PositionX,
		widget.PositionY,
		widget.Width,
		widget.Height,
		widget.IsActive,
		now,
		now,
	).Scan(&widget.ID, &widget.CreatedAt, &widget.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create widget: %w", err)
	}

	return nil
}

func (r *widgetRepository) Update(ctx context.Context, widget *models.DashboardWidget) error {
	sql := `
		UPDATE dashboard_widgets
		SET title = $2, query_id = $3, menu_id = $4, position_x = $5,
		    position_y = $6, width = $7, height = $8, is_active = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, sql,
		widget.ID,
		widget.Title,
		widget.QueryID,
		widget.MenuID,
		widget.PositionX,
		widget.PositionY,
		widget.Width,
		widget.Height,
		widget.IsActive,
	).Scan(&widget.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update widget: %w", err)
	}

	return nil
}

func (r *widgetRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM dashboard_widgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete widget: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *widgetRepository) ListActive(ctx context.Context, menuID *int64) ([]*models.DashboardWidget, error) {
	sql := `
		SELECT id, title, query_id, menu_id, position_x, position_y,
		       width, height, is_active, created_at, updated_at
		FROM dashboard_widgets
		WHERE is_active = true`
	args := []any{}
	if menuID != nil {
		sql += ` AND menu_id = $1`
		args = append(args, *menuID)
	}
	sql += ` ORDER BY position_y, position_x`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query widgets: %w", err)
	}
	defer rows.Close()

	var widgets []*models.DashboardWidget
	for rows.Next() {
		var w models.DashboardWidget
		err := rows.Scan(
			&w.ID, &w.Title, &w.QueryID, &w.MenuID, &w.PositionX, &w.PositionY,
			&w.Width, &w.Height, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan widget: %w", err)
		}
		widgets = append(widgets, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating widgets: %w", err)
	}

	return widgets, nil
}
