package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_key_at_least_32_chars"

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager(testSecret, "neovuln-test", time.Hour)

	token, err := m.GenerateToken("user-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "neovuln-test", claims.Issuer)
}

func TestGenerateTokenRequiresUser(t *testing.T) {
	m := NewJWTManager(testSecret, "neovuln-test", time.Hour)
	_, err := m.GenerateToken("", "")
	assert.Error(t, err)
}

func TestValidateTokenRejects(t *testing.T) {
	m := NewJWTManager(testSecret, "neovuln-test", time.Hour)
	token, err := m.GenerateToken("user-1", "")
	require.NoError(t, err)

	t.Run("wrong_secret", func(t *testing.T) {
		other := NewJWTManager("another_secret_key_with_32_chars_min", "neovuln-test", time.Hour)
		_, err := other.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong_issuer", func(t *testing.T) {
		other := NewJWTManager(testSecret, "someone-else", time.Hour)
		_, err := other.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager(testSecret, "neovuln-test", -time.Minute)
		tok, err := expired.GenerateToken("user-1", "")
		require.NoError(t, err)
		_, err = m.ValidateToken(tok)
		assert.True(t, errors.Is(err, ErrTokenExpired))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Bearer "))
}
