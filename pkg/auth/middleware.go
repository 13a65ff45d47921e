package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/roles"
)

// Middleware authenticates requests and gates admin-only endpoints.
type Middleware struct {
	tokens *TokenService
	logger *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(tokens *TokenService, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, logger: logger}
}

// RequireAuth validates the bearer token and stores its claims in the
// request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.claimsFrom(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin validates the bearer token and additionally requires the
// admin role.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.claimsFrom(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}
		if !roles.IsAdmin(claims.Role) {
			m.logger.Warn("Non-admin attempted admin endpoint",
				zap.String("user_id", claims.Subject),
				zap.String("path", r.URL.Path))
			m.forbidden(w, "Administrator access required")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) claimsFrom(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, errors.New("missing bearer token")
	}
	return m.tokens.Validate(token)
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
