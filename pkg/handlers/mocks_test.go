package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/export"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// withRole attaches authenticated claims to a request, standing in for the
// auth middleware.
func withRole(r *http.Request, role string) *http.Request {
	return withUser(r, role, uuid.NewString())
}

// withUser pins the token subject as well, for tests where caller identity
// matters.
func withUser(r *http.Request, role, id string) *http.Request {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
		Username:         "tester",
		Role:             role,
	}
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimsKey, claims))
}

// withID sets the {id} path value the mux would normally bind.
func withID(r *http.Request, id string) *http.Request {
	r.SetPathValue("id", id)
	return r
}

func record(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, r)
	return rec
}

type mockQueryService struct {
	queries     map[int64]*models.Query
	result      *models.QueryResult
	executeErr  error
	validateErr error
	createErr   error
	lastFilters *datasource.FilterSet
	lastRole    string
}

func (m *mockQueryService) Create(ctx context.Context, query *models.Query) error {
	if m.createErr != nil {
		return m.createErr
	}
	query.ID = int64(len(m.queries) + 1)
	return nil
}

func (m *mockQueryService) Update(ctx context.Context, query *models.Query) error {
	return m.createErr
}

func (m *mockQueryService) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockQueryService) Get(ctx context.Context, id int64) (*models.Query, error) {
	if q, ok := m.queries[id]; ok {
		return q, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockQueryService) List(ctx context.Context) ([]*models.Query, error) {
	out := make([]*models.Query, 0, len(m.queries))
	for _, q := range m.queries {
		out = append(out, q)
	}
	return out, nil
}

func (m *mockQueryService) ListForMenu(ctx context.Context, menuItemID int64, userRole string) ([]*models.Query, error) {
	m.lastRole = userRole
	out := make([]*models.Query, 0)
	for _, q := range m.queries {
		if q.MenuItemID != nil && *q.MenuItemID == menuItemID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockQueryService) Execute(ctx context.Context, id int64, userRole string) (*models.QueryResult, error) {
	m.lastRole = userRole
	m.lastFilters = nil
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}

func (m *mockQueryService) ExecuteFiltered(ctx context.Context, id int64, userRole string, filters *datasource.FilterSet) (*models.QueryResult, error) {
	m.lastRole = userRole
	m.lastFilters = filters
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}

func (m *mockQueryService) Validate(ctx context.Context, sqlQuery string) error {
	return m.validateErr
}

type mockMenuService struct {
	tree      []*models.MenuItem
	item      *models.MenuItem
	createErr error
	deleted   []int64
}

func (m *mockMenuService) Tree(ctx context.Context, userRole string) ([]*models.MenuItem, error) {
	return m.tree, nil
}

func (m *mockMenuService) Create(ctx context.Context, item *models.MenuItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	item.ID = 1
	return nil
}

func (m *mockMenuService) Update(ctx context.Context, item *models.MenuItem) error {
	return m.createErr
}

func (m *mockMenuService) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockMenuService) Get(ctx context.Context, id int64) (*models.MenuItem, error) {
	if m.item == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.item, nil
}

type mockRoleService struct {
	infos      []services.RoleInfo
	roleUsers  []*models.User
	purged     []string
	created    string
	createErr  error
	deleteErr  error
	deleted    string
	reassigned string
}

func (m *mockRoleService) List(ctx context.Context) ([]services.RoleInfo, error) {
	return m.infos, nil
}

func (m *mockRoleService) Create(ctx context.Context, name string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.created, nil
}

func (m *mockRoleService) UsersWith(ctx context.Context, name string) ([]*models.User, error) {
	return m.roleUsers, nil
}

func (m *mockRoleService) Delete(ctx context.Context, name, reassignTo string) error {
	m.deleted = name
	m.reassigned = reassignTo
	return m.deleteErr
}

func (m *mockRoleService) PurgeStale(ctx context.Context) ([]string, error) {
	return m.purged, nil
}

type mockUserService struct {
	users     []*models.User
	roleErr   error
	activeErr error
}

func (m *mockUserService) Create(ctx context.Context, user *models.User, password string) error {
	user.ID = uuid.New()
	return nil
}

func (m *mockUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserService) List(ctx context.Context) ([]*models.User, error) {
	return m.users, nil
}

func (m *mockUserService) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return m.roleErr
}

func (m *mockUserService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.activeErr
}

func (m *mockUserService) Bootstrap(ctx context.Context, username, password string) error {
	return nil
}

type mockDashboardService struct {
	view       *services.DashboardView
	resolveErr error
	widgets    []*models.DashboardWidget
	lastMenuID *int64
}

func (m *mockDashboardService) Resolve(ctx context.Context, menuID int64, userRole string) (*services.DashboardView, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.view, nil
}

func (m *mockDashboardService) Widgets(ctx context.Context, menuID *int64) ([]*models.DashboardWidget, error) {
	m.lastMenuID = menuID
	return m.widgets, nil
}

type mockKPIService struct {
	kpis []*models.KPI
	err  error
}

func (m *mockKPIService) Compute(ctx context.Context) ([]*models.KPI, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.kpis, nil
}

type mockExportService struct {
	file    *export.File
	err     error
	block   chan struct{}
	lastReq export.Request
	calls   int
}

func (m *mockExportService) ExportDataset(ctx context.Context, req export.Request) (*export.File, error) {
	m.calls++
	m.lastReq = req
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.file, nil
}
