package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/dashboard"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/roles"
)

// DashboardView is a resolved interactive dashboard: the raw template plus
// the binding directives extracted from its markers. InertControls lists
// filter-control directives whose query drives no widget in the same
// template, so changing them could never alter anything visible.
type DashboardView struct {
	MenuID        int64                        `json:"menu_id"`
	Name          string                       `json:"name"`
	Template      string                       `json:"template"`
	Directives    []dashboard.BindingDirective `json:"directives"`
	InertControls []dashboard.BindingDirective `json:"inert_controls,omitempty"`
}

// DashboardService resolves interactive dashboard templates and lists
// classic widget grids.
type DashboardService interface {
	// Resolve loads a dashboard menu item and extracts its binding
	// directives. A menu item the role may not see is reported exactly
	// like a missing one.
	Resolve(ctx context.Context, menuID int64, userRole string) (*DashboardView, error)

	// Widgets returns the active classic widgets, optionally scoped to a
	// menu item.
	Widgets(ctx context.Context, menuID *int64) ([]*models.DashboardWidget, error)
}

type dashboardService struct {
	menus   repositories.MenuRepository
	widgets repositories.WidgetRepository
	logger  *zap.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(menus repositories.MenuRepository, widgets repositories.WidgetRepository, logger *zap.Logger) DashboardService {
	return &dashboardService{menus: menus, widgets: widgets, logger: logger}
}

var _ DashboardService = (*dashboardService)(nil)

func (s *dashboardService) Resolve(ctx context.Context, menuID int64, userRole string) (*DashboardView, error) {
	item, err := s.menus.GetByID(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if !roles.Authorized(userRole, item.Role) {
		// Indistinguishable from a missing dashboard.
		return nil, apperrors.ErrNotFound
	}
	if !item.IsInteractiveDashboard || item.InteractiveTemplate == nil {
		return nil, apperrors.ErrNotFound
	}

	directives, err := dashboard.ResolveBindings(*item.InteractiveTemplate)
	if err != nil {
		return nil, err
	}

	return &DashboardView{
		MenuID:        item.ID,
		Name:          item.Name,
		Template:      *item.InteractiveTemplate,
		Directives:    directives,
		InertControls: dashboard.InertControls(directives),
	}, nil
}

func (s *dashboardService) Widgets(ctx context.Context, menuID *int64) ([]*models.DashboardWidget, error) {
	return s.widgets.ListActive(ctx, menuID)
}

// boundExecutor adapts the query service to the dashboard runtime's
// executor contract, pinning the requesting user's role.
type boundExecutor struct {
	queries QueryService
	role    string
}

// NewBoundExecutor creates a dashboard executor that runs saved queries as
// the given role.
func NewBoundExecutor(queries QueryService, userRole string) dashboard.Executor {
	return &boundExecutor{queries: queries, role: userRole}
}

func (e *boundExecutor) ExecuteBound(ctx context.Context, queryID int64, conditions []dashboard.Condition) (*models.QueryResult, error) {
	var filters *datasource.FilterSet
	if len(conditions) > 0 {
		filters = &datasource.FilterSet{Conditions: make([]datasource.Condition, 0, len(conditions))}
		for _, c := range conditions {
			filters.Conditions = append(filters.Conditions, datasource.Condition{
				Column:   c.Column,
				Operator: c.Operator,
				Value:    c.Value,
			})
		}
	}
	return e.queries.ExecuteFiltered(ctx, queryID, e.role, filters)
}
