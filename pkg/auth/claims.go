// Package auth validates HMAC-signed JWTs minted by the identity tier
// and provides context helpers for reaching the authenticated identity
// from handlers and services.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vantagedesk/vantage-console/pkg/roles"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing JWT claims.
const ClaimsKey contextKey = "claims"

// Claims is the token payload. Subject carries the user ID; Role is the
// canonical role code.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// RoleFromContext returns the authenticated user's canonical role, or the
// default role when the context carries no claims.
func RoleFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return roles.DefaultRole
	}
	return roles.Normalize(claims.Role)
}

// UserIDFromContext returns the authenticated user ID, or empty.
func UserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
