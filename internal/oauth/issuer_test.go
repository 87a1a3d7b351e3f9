package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMasterSecret = []byte("test-master-secret-at-least-32-bytes!")

func TestTokenIssuerMint(t *testing.T) {
	issuer, err := NewTokenIssuer(testMasterSecret, time.Hour)
	require.NoError(t, err)

	pair, err := issuer.Mint("athlete-42", "client-1", "read activity:read_all")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Equal(t, "read activity:read_all", pair.Scope)
}

func TestTokenIssuerVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(testMasterSecret, time.Hour)
	require.NoError(t, err)

	pair, err := issuer.Mint("athlete-42", "client-1", "read")
	require.NoError(t, err)

	t.Run("access token round trip", func(t *testing.T) {
		claims, err := issuer.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "athlete-42", claims.UserID)
		assert.Equal(t, "client-1", claims.ClientID)
		assert.Equal(t, "read", claims.Scope)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		payload, err := issuer.VerifyRefreshToken(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "athlete-42", payload.UserID)
		assert.Equal(t, "client-1", payload.ClientID)
		assert.Equal(t, "read", payload.Scope)
	})

	t.Run("refresh token does not verify as access token", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken(pair.RefreshToken)
		assert.Error(t, err)
	})

	t.Run("access token does not verify as refresh token", func(t *testing.T) {
		_, err := issuer.VerifyRefreshToken(pair.AccessToken)
		assert.Error(t, err)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken(pair.AccessToken + "x")
		assert.Error(t, err)
	})

	t.Run("token from another secret rejected", func(t *testing.T) {
		other, err := NewTokenIssuer([]byte("a-completely-different-32-byte-secret"), time.Hour)
		require.NoError(t, err)
		otherPair, err := other.Mint("athlete-42", "client-1", "read")
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(otherPair.AccessToken)
		assert.Error(t, err)
		_, err = issuer.VerifyRefreshToken(otherPair.RefreshToken)
		assert.Error(t, err)
	})
}

func TestAccessTokenExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer(testMasterSecret, -time.Second)
	require.NoError(t, err)

	pair, err := issuer.Mint("athlete-42", "client-1", "read")
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(pair.AccessToken)
	assert.Error(t, err)

	// Refresh tokens have no expiry of their own
	_, err = issuer.VerifyRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}
