package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/dashboard"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/roles"
)

const sampleTemplate = `
<div data-query-id="3" data-widget-type="chart" data-chart-type="bar"></div>
<select data-query-id="3" data-filter data-column="region"></select>
<input data-query-id="9" data-filter data-column="status"/>`

func TestDashboardServiceResolve(t *testing.T) {
	repo := newMockMenuRepo(&models.MenuItem{
		ID:                     7,
		Name:                   "Sales",
		Type:                   models.MenuDashboard,
		IsInteractiveDashboard: true,
		InteractiveTemplate:    strp(sampleTemplate),
	})
	svc := NewDashboardService(repo, &mockWidgetRepo{}, zap.NewNop())

	view, err := svc.Resolve(context.Background(), 7, roles.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, int64(7), view.MenuID)
	require.Len(t, view.Directives, 3)
	assert.Equal(t, dashboard.KindWidget, view.Directives[0].Kind)
	require.Len(t, view.InertControls, 1, "control whose query has no widget")
	assert.Equal(t, "status", view.InertControls[0].Column)
}

func TestDashboardServiceResolveForbiddenLooksMissing(t *testing.T) {
	repo := newMockMenuRepo(&models.MenuItem{
		ID:                     7,
		Type:                   models.MenuDashboard,
		Role:                   roles.RoleFinance,
		IsInteractiveDashboard: true,
		InteractiveTemplate:    strp(sampleTemplate),
	})
	svc := NewDashboardService(repo, &mockWidgetRepo{}, zap.NewNop())

	_, forbiddenErr := svc.Resolve(context.Background(), 7, roles.RoleUser)
	_, missingErr := svc.Resolve(context.Background(), 99, roles.RoleUser)

	assert.ErrorIs(t, forbiddenErr, apperrors.ErrNotFound)
	assert.Equal(t, missingErr, forbiddenErr, "forbidden and missing are indistinguishable")
}

func TestDashboardServiceResolveNonInteractive(t *testing.T) {
	repo := newMockMenuRepo(&models.MenuItem{ID: 7, Type: models.MenuReport})
	svc := NewDashboardService(repo, &mockWidgetRepo{}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), 7, roles.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBoundExecutorConvertsConditions(t *testing.T) {
	repo := newMockQueryRepo(&models.Query{ID: 3, SQLQuery: "SELECT * FROM sales"})
	exec := &mockExecutor{result: &datasource.Result{Columns: []string{"n"}}}
	queries := NewQueryService(repo, exec, zap.NewNop())

	bound := NewBoundExecutor(queries, roles.RoleUser)
	_, err := bound.ExecuteBound(context.Background(), 3, []dashboard.Condition{
		{Column: "region", Operator: "eq", Value: "EMEA"},
	})
	require.NoError(t, err)

	require.NotNil(t, exec.lastFilters)
	require.Len(t, exec.lastFilters.Conditions, 1)
	assert.Equal(t, "region", exec.lastFilters.Conditions[0].Column)
	assert.Equal(t, "EMEA", exec.lastFilters.Conditions[0].Value)
}

func TestBoundExecutorNoConditions(t *testing.T) {
	repo := newMockQueryRepo(&models.Query{ID: 3, SQLQuery: "SELECT 1"})
	exec := &mockExecutor{result: &datasource.Result{Columns: []string{"n"}}}
	queries := NewQueryService(repo, exec, zap.NewNop())

	bound := NewBoundExecutor(queries, roles.RoleUser)
	_, err := bound.ExecuteBound(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.Nil(t, exec.lastFilters)
}

func TestDashboardServiceWidgets(t *testing.T) {
	menuID := int64(5)
	widgets := &mockWidgetRepo{widgets: []*models.DashboardWidget{
		{ID: 1, QueryID: 3, MenuID: &menuID, IsActive: true},
		{ID: 2, QueryID: 4, IsActive: false},
	}}
	svc := NewDashboardService(newMockMenuRepo(), widgets, zap.NewNop())

	active, err := svc.Widgets(context.Background(), &menuID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].ID)
}
