package services

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/roles"
)

// RoleInfo is one entry of the merged role universe.
type RoleInfo struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	IsSystem bool   `json:"is_system"`
	// IsStale marks roles referenced by query or menu assignments but
	// absent from the backend registry.
	IsStale bool `json:"is_stale"`
}

// RoleService manages the role universe: the backend registry, the fixed
// system roles, and role codes embedded in query and menu assignments.
type RoleService interface {
	// List returns the merged role universe in precedence order with
	// display labels and stale markers.
	List(ctx context.Context) ([]RoleInfo, error)

	// Create registers a custom role. The name is canonicalized first.
	Create(ctx context.Context, name string) (string, error)

	// UsersWith returns the accounts carrying the given role.
	UsersWith(ctx context.Context, name string) ([]*models.User, error)

	// Delete removes a custom role from the registry. Query and menu
	// assignments that mention it are rewritten to reassignTo, or
	// scrubbed when reassignTo is empty. System roles are refused, as
	// are roles still carried by active users unless a reassignment
	// target is given.
	Delete(ctx context.Context, name, reassignTo string) error

	// PurgeStale scrubs every stale role from query and menu
	// assignments and returns the purged codes.
	PurgeStale(ctx context.Context) ([]string, error)
}

// roleNamePattern bounds what a canonical role code may look like.
var roleNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

type roleService struct {
	registry repositories.RoleRepository
	queries  repositories.QueryRepository
	menus    repositories.MenuRepository
	users    repositories.UserRepository
	logger   *zap.Logger
}

// NewRoleService creates a new RoleService.
func NewRoleService(
	registry repositories.RoleRepository,
	queries repositories.QueryRepository,
	menus repositories.MenuRepository,
	users repositories.UserRepository,
	logger *zap.Logger,
) RoleService {
	return &roleService{
		registry: registry,
		queries:  queries,
		menus:    menus,
		users:    users,
		logger:   logger,
	}
}

var _ RoleService = (*roleService)(nil)

func (s *roleService) List(ctx context.Context) ([]RoleInfo, error) {
	records, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	backend := make([]string, 0, len(records))
	registered := make(map[string]bool, len(records))
	for _, rec := range records {
		backend = append(backend, rec.Name)
		registered[roles.Normalize(rec.Name)] = true
	}

	queryEmbedded, err := s.embeddedRoles(ctx, s.queries.DistinctRoles)
	if err != nil {
		return nil, err
	}
	menuEmbedded, err := s.embeddedRoles(ctx, s.menus.DistinctRoles)
	if err != nil {
		return nil, err
	}

	universe := roles.MergeUniverse(roles.SystemRoles, backend, queryEmbedded, menuEmbedded)

	infos := make([]RoleInfo, 0, len(universe))
	for _, code := range universe {
		infos = append(infos, RoleInfo{
			Code:     code,
			Label:    roles.FormatLabel(code),
			IsSystem: roles.IsSystem(code),
			IsStale:  !roles.IsSystem(code) && !registered[code],
		})
	}
	return infos, nil
}

// embeddedRoles flattens comma-separated assignment columns into the
// individual role codes they mention.
func (s *roleService) embeddedRoles(ctx context.Context, fetch func(context.Context) ([]string, error)) ([]string, error) {
	assignments, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, assignment := range assignments {
		codes = append(codes, roles.Split(assignment)...)
	}
	return codes, nil
}

func (s *roleService) Create(ctx context.Context, name string) (string, error) {
	code := roles.Normalize(name)
	if !roleNamePattern.MatchString(code) {
		return "", apperrors.ErrInvalidRole
	}
	if roles.IsSystem(code) {
		return "", apperrors.ErrRoleExists
	}
	if err := s.registry.Create(ctx, code); err != nil {
		return "", err
	}
	s.logger.Info("Created role", zap.String("role", code))
	return code, nil
}

func (s *roleService) UsersWith(ctx context.Context, name string) ([]*models.User, error) {
	code := roles.Normalize(name)
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*models.User, 0)
	for _, u := range all {
		if roles.Normalize(u.Role) == code {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (s *roleService) Delete(ctx context.Context, name, reassignTo string) error {
	code := roles.Normalize(name)
	if roles.IsSystem(code) {
		return apperrors.ErrSystemRole
	}

	target := ""
	if strings.TrimSpace(reassignTo) != "" {
		target = roles.Normalize(reassignTo)
		if target == code || !roleNamePattern.MatchString(target) {
			return apperrors.ErrInvalidRole
		}
	}

	carriers, err := s.UsersWith(ctx, code)
	if err != nil {
		return err
	}
	if len(carriers) > 0 {
		if target == "" {
			return apperrors.ErrRoleInUse
		}
		for _, u := range carriers {
			if err := s.users.UpdateRole(ctx, u.ID, target); err != nil {
				return err
			}
		}
	}

	if err := s.registry.Delete(ctx, code); err != nil {
		// A stale role lives only in assignments; rewrite those anyway.
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
	}

	if err := s.rewriteAssignments(ctx, code, target); err != nil {
		return err
	}

	s.logger.Info("Deleted role",
		zap.String("role", code),
		zap.String("reassigned_to", target))
	return nil
}

func (s *roleService) PurgeStale(ctx context.Context) ([]string, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	purged := make([]string, 0)
	for _, info := range infos {
		if !info.IsStale {
			continue
		}
		if err := s.rewriteAssignments(ctx, info.Code, ""); err != nil {
			return nil, err
		}
		purged = append(purged, info.Code)
	}
	if len(purged) > 0 {
		s.logger.Info("Purged stale roles", zap.Strings("roles", purged))
	}
	return purged, nil
}

// rewriteAssignments replaces the role code with target in every query
// and menu assignment list that mentions it. An empty target removes the
// code outright.
func (s *roleService) rewriteAssignments(ctx context.Context, code, target string) error {
	queries, err := s.queries.List(ctx)
	if err != nil {
		return err
	}
	for _, q := range queries {
		if updated, changed := replaceRole(q.Role, code, target); changed {
			if err := s.queries.ReplaceRole(ctx, q.ID, updated); err != nil {
				return err
			}
		}
	}

	menus, err := s.menus.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range menus {
		if updated, changed := replaceRole(m.Role, code, target); changed {
			if err := s.menus.ReplaceRole(ctx, m.ID, updated); err != nil {
				return err
			}
		}
	}
	return nil
}

func replaceRole(assignment, code, target string) (string, bool) {
	split := roles.Split(assignment)
	kept := split[:0]
	changed := false
	for _, r := range split {
		if r == code {
			changed = true
			continue
		}
		kept = append(kept, r)
	}
	if !changed {
		return assignment, false
	}
	if target != "" && !slices.Contains(kept, target) {
		kept = append(kept, target)
	}
	return roles.Serialize(kept), true
}
