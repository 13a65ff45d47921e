package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/roles"
)

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }

func TestMenuServiceTreeFiltersByRole(t *testing.T) {
	repo := newMockMenuRepo(
		&models.MenuItem{ID: 1, Name: "Reports", Type: models.MenuFolder},
		&models.MenuItem{ID: 2, ParentID: int64p(1), Name: "Sales", Type: models.MenuReport},
		&models.MenuItem{ID: 3, ParentID: int64p(1), Name: "Payroll", Type: models.MenuReport, Role: roles.RoleFinance},
	)
	svc := NewMenuService(repo, zap.NewNop())

	tree, err := svc.Tree(context.Background(), roles.RoleUser)
	require.NoError(t, err)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Sales", tree[0].Children[0].Name)
}

func TestMenuServiceTreeAdminSeesAll(t *testing.T) {
	repo := newMockMenuRepo(
		&models.MenuItem{ID: 1, Name: "Reports", Type: models.MenuFolder},
		&models.MenuItem{ID: 2, ParentID: int64p(1), Name: "Payroll", Type: models.MenuReport, Role: roles.RoleFinance},
	)
	svc := NewMenuService(repo, zap.NewNop())

	tree, err := svc.Tree(context.Background(), roles.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Children, 1)
}

func TestMenuServiceTreeOrphanSurfacesAtRoot(t *testing.T) {
	// Child visible, parent restricted away.
	repo := newMockMenuRepo(
		&models.MenuItem{ID: 1, Name: "Finance", Type: models.MenuFolder, Role: roles.RoleFinance},
		&models.MenuItem{ID: 2, ParentID: int64p(1), Name: "Overview", Type: models.MenuReport},
	)
	svc := NewMenuService(repo, zap.NewNop())

	tree, err := svc.Tree(context.Background(), roles.RoleUser)
	require.NoError(t, err)

	require.Len(t, tree, 1)
	assert.Equal(t, "Overview", tree[0].Name)
}

func TestMenuServiceCreateValidation(t *testing.T) {
	svc := NewMenuService(newMockMenuRepo(), zap.NewNop())
	ctx := context.Background()

	err := svc.Create(ctx, &models.MenuItem{Type: models.MenuReport})
	assert.Error(t, err, "name required")

	err = svc.Create(ctx, &models.MenuItem{Name: "X", Type: "widget"})
	assert.Error(t, err, "unknown type")

	err = svc.Create(ctx, &models.MenuItem{
		Name: "X", Type: models.MenuReport, IsInteractiveDashboard: true,
		InteractiveTemplate: strp("<div></div>"),
	})
	assert.Error(t, err, "interactive flag on non-dashboard")

	err = svc.Create(ctx, &models.MenuItem{
		Name: "X", Type: models.MenuDashboard, IsInteractiveDashboard: true,
	})
	assert.Error(t, err, "interactive dashboard without template")
}

func TestMenuServiceCreateInteractiveDashboard(t *testing.T) {
	repo := newMockMenuRepo()
	svc := NewMenuService(repo, zap.NewNop())

	item := &models.MenuItem{
		Name:                   "Sales Dashboard",
		Type:                   models.MenuDashboard,
		IsInteractiveDashboard: true,
		InteractiveTemplate:    strp(`<div data-query-id="3" data-widget-type="chart"></div>`),
		Role:                   "finance user",
	}
	require.NoError(t, svc.Create(context.Background(), item))
	assert.Equal(t, roles.RoleFinance, item.Role, "role list is canonicalized")
}
