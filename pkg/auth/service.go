package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "vantage-console"

// TokenService verifies access tokens minted by the identity tier. The
// console never signs tokens itself; it shares the HMAC secret with the
// issuer and only validates.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService verifying against the given HMAC
// secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Validate parses and verifies a token string.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
