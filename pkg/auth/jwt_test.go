package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokenPair(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)

	tokens, err := manager.GenerateTokenPair("user-1", "customer", "shopper@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	claims, err := manager.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, "shopper@example.com", claims.Email)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	other := NewJWTManager("other-secret", 1, 7)

	tokens, err := manager.GenerateTokenPair("user-1", "customer", "shopper@example.com")
	require.NoError(t, err)

	_, err = other.ValidateToken(tokens.AccessToken)
	assert.Error(t, err)
}

func TestRefreshAccessToken_RejectsAccessToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)

	tokens, err := manager.GenerateTokenPair("user-1", "customer", "shopper@example.com")
	require.NoError(t, err)

	_, err = manager.RefreshAccessToken(tokens.AccessToken)
	assert.Error(t, err)

	refreshed, err := manager.RefreshAccessToken(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}
