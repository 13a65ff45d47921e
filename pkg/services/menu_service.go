package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/dashboard"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/roles"
)

// MenuService manages the navigation tree and filters it per role.
type MenuService interface {
	// Tree returns the menu tree visible to the given role. Admin sees
	// everything; other roles see items whose assignment includes them
	// plus unrestricted items. A folder with no visible children is
	// still returned so empty sections render consistently.
	Tree(ctx context.Context, userRole string) ([]*models.MenuItem, error)

	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.MenuItem, error)
}

type menuService struct {
	menus  repositories.MenuRepository
	logger *zap.Logger
}

// NewMenuService creates a new MenuService.
func NewMenuService(menus repositories.MenuRepository, logger *zap.Logger) MenuService {
	return &menuService{menus: menus, logger: logger}
}

var _ MenuService = (*menuService)(nil)

func (s *menuService) Tree(ctx context.Context, userRole string) ([]*models.MenuItem, error) {
	items, err := s.menus.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]*models.MenuItem, 0, len(items))
	for _, item := range items {
		if roles.Authorized(userRole, item.Role) {
			visible = append(visible, item)
		}
	}

	return buildTree(visible), nil
}

// buildTree links flat rows into parent/child structure. Items whose
// parent is not visible surface at the top level rather than vanishing.
func buildTree(items []*models.MenuItem) []*models.MenuItem {
	byID := make(map[int64]*models.MenuItem, len(items))
	for _, item := range items {
		item.Children = nil
		byID[item.ID] = item
	}

	var root []*models.MenuItem
	for _, item := range items {
		if item.ParentID != nil {
			if parent, ok := byID[*item.ParentID]; ok {
				parent.Children = append(parent.Children, item)
				continue
			}
		}
		root = append(root, item)
	}
	return root
}

func (s *menuService) Create(ctx context.Context, item *models.MenuItem) error {
	if err := s.prepare(item); err != nil {
		return err
	}
	if err := s.menus.Create(ctx, item); err != nil {
		return err
	}
	s.logger.Info("Created menu item",
		zap.Int64("menu_id", item.ID),
		zap.String("name", item.Name),
		zap.String("type", item.Type))
	return nil
}

func (s *menuService) Update(ctx context.Context, item *models.MenuItem) error {
	if err := s.prepare(item); err != nil {
		return err
	}
	return s.menus.Update(ctx, item)
}

func (s *menuService) prepare(item *models.MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	switch item.Type {
	case models.MenuFolder, models.MenuReport, models.MenuDashboard:
	default:
		return fmt.Errorf("invalid menu item type %q", item.Type)
	}
	item.Role = roles.Serialize(roles.Split(item.Role))

	if item.IsInteractiveDashboard {
		if item.Type != models.MenuDashboard {
			return fmt.Errorf("only dashboard items may carry an interactive template")
		}
		if item.InteractiveTemplate == nil || *item.InteractiveTemplate == "" {
			return fmt.Errorf("interactive dashboard requires a template")
		}
		// Reject templates whose markers cannot be resolved at all.
		if _, err := dashboard.ResolveBindings(*item.InteractiveTemplate); err != nil {
			return fmt.Errorf("invalid dashboard template: %w", err)
		}
	}
	return nil
}

func (s *menuService) Delete(ctx context.Context, id int64) error {
	return s.menus.Delete(ctx, id)
}

func (s *menuService) Get(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.menus.GetByID(ctx, id)
}
