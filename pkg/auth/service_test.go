package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signToken mimics what the identity tier produces.
func signToken(t *testing.T, secret string, mutate func(*Claims)) string {
	t.Helper()
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Username: "pat",
		Role:     "FINANCE_USER",
	}
	if mutate != nil {
		mutate(claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateAcceptsIssuerToken(t *testing.T) {
	svc := NewTokenService("test-secret")

	claims, err := svc.Validate(signToken(t, "test-secret", nil))
	require.NoError(t, err)

	assert.Equal(t, "pat", claims.Username)
	assert.Equal(t, "FINANCE_USER", claims.Role)
	assert.NotEmpty(t, claims.Subject)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret")

	token := signToken(t, "test-secret", func(c *Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	})

	_, err := svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRequiresExpiry(t *testing.T) {
	svc := NewTokenService("test-secret")

	token := signToken(t, "test-secret", func(c *Claims) {
		c.ExpiresAt = nil
	})

	_, err := svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService("secret-b")

	_, err := svc.Validate(signToken(t, "secret-a", nil))
	assert.Error(t, err)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	svc := NewTokenService("test-secret")

	token := signToken(t, "test-secret", func(c *Claims) {
		c.Issuer = "somebody-else"
	})

	_, err := svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
