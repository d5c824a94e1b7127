package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(7, "miner@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userId, email, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userId)
	assert.Equal(t, "miner@example.com", email)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateJWT(7, "miner@example.com")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, _, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, _, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsZeroUserId(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	claims := JWTClaim{
		0,
		"miner@example.com",
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, _, err = ValidateToken(signed)
	assert.Error(t, err)
}
