package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func bearerFor(t *testing.T, role string) string {
	t.Helper()
	return "Bearer " + signToken(t, "test-secret", func(c *Claims) {
		c.Role = role
	})
}

func TestRequireAuth(t *testing.T) {
	mw := NewMiddleware(NewTokenService("test-secret"), zap.NewNop())

	var gotRole string
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/queries", nil)
	req.Header.Set("Authorization", bearerFor(t, "USER"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "USER", gotRole)
}

func TestRequireAuthMissingToken(t *testing.T) {
	mw := NewMiddleware(NewTokenService("test-secret"), zap.NewNop())
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/queries", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	mw := NewMiddleware(NewTokenService("test-secret"), zap.NewNop())

	called := false
	handler := mw.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodPost, "/api/roles", nil)
	req.Header.Set("Authorization", bearerFor(t, "ADMIN"))
	handler(httptest.NewRecorder(), req)
	assert.True(t, called)

	req = httptest.NewRequest(http.MethodPost, "/api/roles", nil)
	req.Header.Set("Authorization", bearerFor(t, "USER"))
	rec := httptest.NewRecorder()
	called = false
	handler(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleFromContextWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "USER", RoleFromContext(req.Context()))
}
