package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseToken(t *testing.T) {
	signed, err := SignToken("secret", "user-1", "customer", TokenAccess, 60)
	require.NoError(t, err)

	claims, err := ParseToken("secret", signed, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "customer", claims.Role)
}

func TestParseTokenRejectsWrongType(t *testing.T) {
	signed, err := SignToken("secret", "user-1", "customer", TokenRefresh, 60)
	require.NoError(t, err)

	_, err = ParseToken("secret", signed, TokenAccess)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signed, err := SignToken("secret", "user-1", "customer", TokenAccess, 60)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", signed, TokenAccess)
	assert.Error(t, err)
}

func TestParseTokenPinsSigningMethod(t *testing.T) {
	// a token signed with another HMAC variant must not validate even
	// though the secret matches
	claims := Claims{
		UserID:    "user-1",
		Role:      "customer",
		TokenType: TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken("secret", signed, TokenAccess)
	assert.Error(t, err)
}
