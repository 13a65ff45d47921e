package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/database"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

// RoleRepository provides data access for the backend role registry.
type RoleRepository interface {
	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*models.RoleRecord, error)
	List(ctx context.Context) ([]*models.RoleRecord, error)
}

type roleRepository struct {
	db *database.DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *database.DB) RoleRepository {
	return &roleRepository{db: db}
}

var _ RoleRepository = (*roleRepository)(nil)

func (r *roleRepository) Create(ctx context.Context, name string) error {
	result, err := r.db.Exec(ctx,
		`INSERT INTO roles (name, is_system) VALUES ($1, false)
		 ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRoleExists
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM roles WHERE name = $1 AND is_system = false`, name)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *roleRepository) Get(ctx context.Context, name string) (*models.RoleRecord, error) {
	var rec models.RoleRecord
	err := r.db.QueryRow(ctx,
		`SELECT name, is_system FROM roles WHERE name = $1`, name).
		Scan(&rec.Name, &rec.IsSystem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &rec, nil
}

func (r *roleRepository) List(ctx context.Context) ([]*models.RoleRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, is_system FROM roles ORDER BY is_system DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var records []*models.RoleRecord
	for rows.Next() {
		var rec models.RoleRecord
		if err := rows.Scan(&rec.Name, &rec.IsSystem); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return records, nil
}
