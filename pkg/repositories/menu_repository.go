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

// MenuRepository provides data access for navigation menu items.
type MenuRepository interface {
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.MenuItem, error)
	// List returns every menu item as a flat slice ordered for tree
	// assembly: parents sort before children, siblings by sort_order.
	List(ctx context.Context) ([]*models.MenuItem, error)
	DistinctRoles(ctx context.Context) ([]string, error)
	ReplaceRole(ctx context.Context, id int64, newRole string) error
}

type menuRepository struct {
	db *database.DB
}

// NewMenuRepository creates a new MenuRepository.
func NewMenuRepository(db *database.DB) MenuRepository {
	return &menuRepository{db: db}
}

var _ MenuRepository = (*menuRepository)(nil)

func (r *menuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	now := time.Now()

	sql := `
		INSERT INTO menu_items (
			parent_id, name, type, icon, sort_order, role,
			is_interactive_dashboard, interactive_template, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		item.ParentID,
		item.Name,
		item.Type,
		nullIfEmpty(item.Icon),
		item.SortOrder,
		nullIfEmpty(item.Role),
		item.IsInteractiveDashboard,
		item.InteractiveTemplate,
		now,
		now,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	return nil
}

func (r *menuRepository) Update(ctx context.Context, item *models.MenuItem) error {
	sql := `
		UPDATE menu_items
		SET parent_id = $2, name = $3, type = $4, icon = $5, sort_order = $6,
		    role = $7, is_interactive_dashboard = $8, interactive_template = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, sql,
		item.ID,
		item.ParentID,
		item.Name,
		item.Type,
		nullIfEmpty(item.Icon),
		item.SortOrder,
		nullIfEmpty(item.Role),
		item.IsInteractiveDashboard,
		item.InteractiveTemplate,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update menu item: %w", err)
	}

	return nil
}

func (r *menuRepository) Delete(ctx context.Context, id int64) error {
	// Children and attached queries cascade via FK constraints.
	result, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *menuRepository) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	row := r.db.QueryRow(ctx, menuSelect+` WHERE id = $1`, id)
	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *menuRepository) List(ctx context.Context) ([]*models.MenuItem, error) {
	sql := menuSelect + ` ORDER BY parent_id NULLS FIRST, sort_order, name`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

func (r *menuRepository) DistinctRoles(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT role FROM menu_items WHERE role IS NOT NULL AND role <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct menu roles: %w", err)
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
		return nil, fmt.Errorf("error iterating menu roles: %w", err)
	}

	return roleLists, nil
}

func (r *menuRepository) ReplaceRole(ctx context.Context, id int64, newRole string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE menu_items SET role = $2, updated_at = now() WHERE id = $1`,
		id, nullIfEmpty(newRole))
	if err != nil {
		return fmt.Errorf("failed to update menu item role: %w", err)
	}
	return nil
}

const menuSelect = `
	SELECT id, parent_id, name, type, icon, sort_order, role,
	       is_interactive_dashboard, interactive_template, created_at, updated_at
	FROM menu_items`

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var m models.MenuItem
	var icon, role *string

	err := row.Scan(
		&m.ID,
		&m.ParentID,
		&m.Name,
		&m.Type,
		&icon,
		&m.SortOrder,
		&role,
		&m.IsInteractiveDashboard,
		&m.InteractiveTemplate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan menu item: %w", err)
	}

	if icon != nil {
		m.Icon = *icon
	}
	if role != nil {
		m.Role = *role
	}

	return &m, nil
}
