package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret-key-for-jwt-that-is-long", 15*time.Minute, 7*24*time.Hour)
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "amy@example.com", "amy")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "amy@example.com", claims.Email)
	assert.Equal(t, "amy", claims.Username)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "chow-server", claims.Issuer)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestJWTManager_RefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-2")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID)
	assert.True(t, claims.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
}

func TestJWTManager_RefreshTokensAreUnique(t *testing.T) {
	m := newTestManager()

	// Same user, same second: rotation must still produce a fresh token.
	first, err := m.GenerateRefreshToken("user-2")
	require.NoError(t, err)
	second, err := m.GenerateRefreshToken("user-2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	firstClaims, err := m.ValidateRefreshToken(first)
	require.NoError(t, err)
	secondClaims, err := m.ValidateRefreshToken(second)
	require.NoError(t, err)
	assert.NotEmpty(t, firstClaims.ID)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("a-completely-different-secret-value!", 15*time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "amy@example.com", "amy")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret-key-for-jwt-that-is-long", -1*time.Minute, -1*time.Minute)

	token, err := m.GenerateAccessToken("user-1", "amy@example.com", "amy")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	m := newTestManager()

	_, err := m.ValidateAccessToken("not.a.jwt")
	assert.Error(t, err)

	_, err = m.ValidateRefreshToken("")
	assert.Error(t, err)
}

func TestJWTManager_AccessTokenNotValidAsRefresh(t *testing.T) {
	m := newTestManager()

	access, err := m.GenerateAccessToken("user-1", "amy@example.com", "amy")
	require.NoError(t, err)

	// Both token kinds share the signing key; the refresh validator still
	// extracts the user ID, which is why Restore checks the stored hash too.
	claims, err := m.ValidateRefreshToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}
