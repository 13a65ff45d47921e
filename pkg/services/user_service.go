package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/roles"
)

// UserService manages console accounts. Passwords are stored as bcrypt
// hashes for the identity tier that signs tokens; this service never
// issues sessions itself.
type UserService interface {
	Create(ctx context.Context, user *models.User, password string) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	// UpdateRole changes an account's role. Demoting the last active
	// admin is refused.
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error

	// SetActive enables or disables an account. Deactivating the last
	// active admin is refused.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// Bootstrap creates the initial admin account when no active admin
	// exists. A blank password skips bootstrapping entirely.
	Bootstrap(ctx context.Context, username, password string) error
}

type userService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger}
}

var _ UserService = (*userService)(nil)

func (s *userService) Create(ctx context.Context, user *models.User, password string) error {
	if user.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	user.Role = roles.Normalize(user.Role)
	user.IsActive = true

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, user, string(hash)); err != nil {
		return err
	}
	s.logger.Info("Created user",
		zap.String("username", user.Username),
		zap.String("role", user.Role))
	return nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Role = roles.Normalize(u.Role)
	}
	return users, nil
}

func (s *userService) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	code := roles.Normalize(role)

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if roles.IsAdmin(current.Role) && !roles.IsAdmin(code) {
		if err := s.guardLastAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.users.UpdateRole(ctx, id, code); err != nil {
		return err
	}
	s.logger.Info("Updated user role",
		zap.String("user_id", id.String()),
		zap.String("role", code))
	return nil
}

func (s *userService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if !active {
		current, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.IsActive && roles.IsAdmin(current.Role) {
			if err := s.guardLastAdmin(ctx); err != nil {
				return err
			}
		}
	}
	return s.users.SetActive(ctx, id, active)
}

func (s *userService) Bootstrap(ctx context.Context, username, password string) error {
	if password == "" {
		return nil
	}
	admins, err := s.users.CountActiveWithRole(ctx, roles.RoleAdmin)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	if username == "" {
		username = "admin"
	}
	user := &models.User{Username: username, Role: roles.RoleAdmin, IsActive: true}
	if err := s.Create(ctx, user, password); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	s.logger.Warn("Bootstrapped initial admin account, change its password",
		zap.String("username", username))
	return nil
}

func (s *userService) guardLastAdmin(ctx context.Context) error {
	admins, err := s.users.CountActiveWithRole(ctx, roles.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperrors.ErrLastAdmin
	}
	return nil
}
