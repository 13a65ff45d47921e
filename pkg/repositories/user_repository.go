package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/database"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

// UserRepository provides data access for console accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User, passwordHash string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, string, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// CountActiveWithRole supports the last-admin guard.
	CountActiveWithRole(ctx context.Context, role string) (int, error)
	DistinctRoles(ctx context.Context) ([]string, error)
}

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

var _ UserRepository = (*userRepository)(nil)

func (r *userRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()

	sql := `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		user.ID,
		user.Username,
		user.Email,
		passwordHash,
		nullIfEmpty(user.Role),
		user.IsActive,
		now,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, userSelect+` WHERE id = $1`, id)
	user, _, err := scanUser(row, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, string, error) {
	sql := `
		SELECT id, username, email, role, is_active, created_at, updated_at, password_hash
		FROM users
		WHERE lower(username) = lower($1)`

	row := r.db.QueryRow(ctx, sql, username)
	user, hash, err := scanUser(row, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.ErrNotFound
		}
		return nil, "", err
	}
	return user, hash, nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, _, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`,
		id, nullIfEmpty(role))
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) CountActiveWithRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE role = $1 AND is_active = true`, role).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users with role: %w", err)
	}
	return count, nil
}

func (r *userRepository) DistinctRoles(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT role FROM users WHERE role IS NOT NULL AND role <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct user roles: %w", err)
	}
	defer rows.Close()

	var userRoles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		userRoles = append(userRoles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user roles: %w", err)
	}

	return userRoles, nil
}

const userSelect = `
	SELECT id, username, email, role, is_active, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row, withHash bool) (*models.User, string, error) {
	var u models.User
	var role *string
	var hash string

	dest := []any{&u.ID, &u.Username, &u.Email, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt}
	if withHash {
		dest = append(dest, &hash)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to scan user: %w", err)
	}

	if role != nil {
		u.Role = *role
	}

	return &u, hash, nil
}
