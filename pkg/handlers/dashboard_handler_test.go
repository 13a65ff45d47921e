package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/dashboard"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/roles"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

func TestDashboardHandler_Resolve(t *testing.T) {
	svc := &mockDashboardService{view: &services.DashboardView{
		MenuID:   3,
		Name:     "Ops board",
		Template: `<div data-query-id="5"></div>`,
		Directives: []dashboard.BindingDirective{
			{QueryID: 5, Kind: dashboard.KindWidget, WidgetType: "table"},
		},
	}}
	h := NewDashboardHandler(svc, &mockQueryService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboards/3", nil)
	req = withID(withRole(req, roles.RoleFinance), "3")
	rec := record(h.Resolve, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data services.DashboardView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Ops board", resp.Data.Name)
	require.Len(t, resp.Data.Directives, 1)
	assert.Equal(t, int64(5), resp.Data.Directives[0].QueryID)
}

func TestDashboardHandler_Resolve_HiddenReads404(t *testing.T) {
	svc := &mockDashboardService{resolveErr: apperrors.ErrNotFound}
	h := NewDashboardHandler(svc, &mockQueryService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboards/3", nil)
	req = withID(withRole(req, roles.RoleTech), "3")
	rec := record(h.Resolve, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandler_Execute_PassesConditions(t *testing.T) {
	queries := &mockQueryService{result: &models.QueryResult{Success: true}}
	h := NewDashboardHandler(&mockDashboardService{}, queries, zap.NewNop())

	body := `{"query_id":5,"conditions":[{"column":"region","operator":"eq","value":"north"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/dashboards/execute", bytes.NewBufferString(body))
	rec := record(h.Execute, withRole(req, roles.RoleFinance))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, roles.RoleFinance, queries.lastRole)
	require.NotNil(t, queries.lastFilters)
	require.Len(t, queries.lastFilters.Conditions, 1)
	assert.Equal(t, "north", queries.lastFilters.Conditions[0].Value)
}

func TestDashboardHandler_Execute_MissingQueryID(t *testing.T) {
	h := NewDashboardHandler(&mockDashboardService{}, &mockQueryService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/dashboards/execute", bytes.NewBufferString(`{}`))
	rec := record(h.Execute, withRole(req, roles.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandler_Widgets_MenuFilter(t *testing.T) {
	svc := &mockDashboardService{widgets: []*models.DashboardWidget{
		{ID: 1, Title: "Revenue", QueryID: 5, IsActive: true},
	}}
	h := NewDashboardHandler(svc, &mockQueryService{}, zap.NewNop())

	req := withRole(httptest.NewRequest(http.MethodGet, "/api/widgets?menu_id=9", nil), roles.RoleUser)
	rec := record(h.Widgets, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastMenuID)
	assert.Equal(t, int64(9), *svc.lastMenuID)
}

func TestDashboardHandler_Widgets_BadMenuID(t *testing.T) {
	h := NewDashboardHandler(&mockDashboardService{}, &mockQueryService{}, zap.NewNop())

	req := withRole(httptest.NewRequest(http.MethodGet, "/api/widgets?menu_id=zero", nil), roles.RoleUser)
	rec := record(h.Widgets, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
