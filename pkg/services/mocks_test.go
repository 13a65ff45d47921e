package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

type mockQueryRepo struct {
	queries       map[int64]*models.Query
	replacedRoles map[int64]string
	createErr     error
}

func newMockQueryRepo(queries ...*models.Query) *mockQueryRepo {
	m := &mockQueryRepo{
		queries:       make(map[int64]*models.Query),
		replacedRoles: make(map[int64]string),
	}
	for _, q := range queries {
		m.queries[q.ID] = q
	}
	return m
}

func (m *mockQueryRepo) Create(_ context.Context, q *models.Query) error {
	if m.createErr != nil {
		return m.createErr
	}
	if q.ID == 0 {
		q.ID = int64(len(m.queries) + 1)
	}
	m.queries[q.ID] = q
	return nil
}

func (m *mockQueryRepo) Update(_ context.Context, q *models.Query) error {
	if _, ok := m.queries[q.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.queries[q.ID] = q
	return nil
}

func (m *mockQueryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.queries[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.queries, id)
	return nil
}

func (m *mockQueryRepo) GetByID(_ context.Context, id int64) (*models.Query, error) {
	q, ok := m.queries[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return q, nil
}

func (m *mockQueryRepo) List(_ context.Context) ([]*models.Query, error) {
	var out []*models.Query
	for _, q := range m.queries {
		out = append(out, q)
	}
	return out, nil
}

func (m *mockQueryRepo) ListByMenuItem(_ context.Context, menuItemID int64) ([]*models.Query, error) {
	var out []*models.Query
	for _, q := range m.queries {
		if q.MenuItemID != nil && *q.MenuItemID == menuItemID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockQueryRepo) DistinctRoles(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, q := range m.queries {
		if q.Role != "" && !seen[q.Role] {
			seen[q.Role] = true
			out = append(out, q.Role)
		}
	}
	return out, nil
}

func (m *mockQueryRepo) ReplaceRole(_ context.Context, id int64, newRole string) error {
	if q, ok := m.queries[id]; ok {
		q.Role = newRole
	}
	m.replacedRoles[id] = newRole
	return nil
}

type mockMenuRepo struct {
	items         map[int64]*models.MenuItem
	replacedRoles map[int64]string
}

func newMockMenuRepo(items ...*models.MenuItem) *mockMenuRepo {
	m := &mockMenuRepo{
		items:         make(map[int64]*models.MenuItem),
		replacedRoles: make(map[int64]string),
	}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *mockMenuRepo) Create(_ context.Context, item *models.MenuItem) error {
	if item.ID == 0 {
		item.ID = int64(len(m.items) + 1)
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockMenuRepo) Update(_ context.Context, item *models.MenuItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockMenuRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockMenuRepo) GetByID(_ context.Context, id int64) (*models.MenuItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return item, nil
}

func (m *mockMenuRepo) List(_ context.Context) ([]*models.MenuItem, error) {
	var out []*models.MenuItem
	for id := int64(1); id <= int64(len(m.items))+100; id++ {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockMenuRepo) DistinctRoles(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, item := range m.items {
		if item.Role != "" && !seen[item.Role] {
			seen[item.Role] = true
			out = append(out, item.Role)
		}
	}
	return out, nil
}

func (m *mockMenuRepo) ReplaceRole(_ context.Context, id int64, newRole string) error {
	if item, ok := m.items[id]; ok {
		item.Role = newRole
	}
	m.replacedRoles[id] = newRole
	return nil
}

type mockRoleRepo struct {
	records map[string]*models.RoleRecord
}

func newMockRoleRepo(records ...*models.RoleRecord) *mockRoleRepo {
	m := &mockRoleRepo{records: make(map[string]*models.RoleRecord)}
	for _, rec := range records {
		m.records[rec.Name] = rec
	}
	return m
}

func (m *mockRoleRepo) Create(_ context.Context, name string) error {
	if _, ok := m.records[name]; ok {
		return apperrors.ErrRoleExists
	}
	m.records[name] = &models.RoleRecord{Name: name}
	return nil
}

func (m *mockRoleRepo) Delete(_ context.Context, name string) error {
	rec, ok := m.records[name]
	if !ok || rec.IsSystem {
		return apperrors.ErrNotFound
	}
	delete(m.records, name)
	return nil
}

func (m *mockRoleRepo) Get(_ context.Context, name string) (*models.RoleRecord, error) {
	rec, ok := m.records[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return rec, nil
}

func (m *mockRoleRepo) List(_ context.Context) ([]*models.RoleRecord, error) {
	var out []*models.RoleRecord
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

type mockUserRepo struct {
	users  map[uuid.UUID]*models.User
	hashes map[uuid.UUID]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:  make(map[uuid.UUID]*models.User),
		hashes: make(map[uuid.UUID]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User, hash string) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	m.hashes[user.ID] = hash
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, string, error) {
	for id, user := range m.users {
		if user.Username == username {
			return user, m.hashes[id], nil
		}
	}
	return nil, "", apperrors.ErrNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role string) error {
	user, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Role = role
	return nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	user, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.IsActive = active
	return nil
}

func (m *mockUserRepo) CountActiveWithRole(_ context.Context, role string) (int, error) {
	count := 0
	for _, user := range m.users {
		if user.IsActive && user.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *mockUserRepo) DistinctRoles(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, user := range m.users {
		if user.Role != "" && !seen[user.Role] {
			seen[user.Role] = true
			out = append(out, user.Role)
		}
	}
	return out, nil
}

type mockKPIRepo struct {
	kpis []*models.KPI
}

func (m *mockKPIRepo) ListActive(_ context.Context) ([]*models.KPI, error) {
	return m.kpis, nil
}

type mockWidgetRepo struct {
	widgets []*models.DashboardWidget
}

func (m *mockWidgetRepo) Create(_ context.Context, w *models.DashboardWidget) error {
	m.widgets = append(m.widgets, w)
	return nil
}

func (m *mockWidgetRepo) Update(_ context.Context, _ *models.DashboardWidget) error { return nil }

func (m *mockWidgetRepo) Delete(_ context.Context, _ int64) error { return nil }

func (m *mockWidgetRepo) ListActive(_ context.Context, menuID *int64) ([]*models.DashboardWidget, error) {
	var out []*models.DashboardWidget
	for _, w := range m.widgets {
		if !w.IsActive {
			continue
		}
		if menuID != nil && (w.MenuID == nil || *w.MenuID != *menuID) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// mockExecutor replays canned results and records the SQL and filters it
// was asked to run.
type mockExecutor struct {
	result      *datasource.Result
	err         error
	count       int
	countErr    error
	lastSQL     string
	lastFilters *datasource.FilterSet
	lastLimit   int
	calls       int
}

func (m *mockExecutor) Query(_ context.Context, sqlQuery string, limit int) (*datasource.Result, error) {
	m.calls++
	m.lastSQL = sqlQuery
	m.lastLimit = limit
	return m.result, m.err
}

func (m *mockExecutor) QueryFiltered(_ context.Context, sqlQuery string, filters *datasource.FilterSet, limit int) (*datasource.Result, error) {
	m.calls++
	m.lastSQL = sqlQuery
	m.lastFilters = filters
	m.lastLimit = limit
	return m.result, m.err
}

func (m *mockExecutor) QueryAll(_ context.Context, sqlQuery string, filters *datasource.FilterSet) (*datasource.Result, error) {
	m.calls++
	m.lastSQL = sqlQuery
	m.lastFilters = filters
	m.lastLimit = 0
	return m.result, m.err
}

func (m *mockExecutor) Count(_ context.Context, sqlQuery string, filters *datasource.FilterSet) (int, error) {
	return m.count, m.countErr
}

func (m *mockExecutor) Validate(_ context.Context, _ string) error { return m.err }

func (m *mockExecutor) Close() {}
