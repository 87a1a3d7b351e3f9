package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSecureToken()
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}

func TestSignData(t *testing.T) {
	key := []byte("test-signing-key")

	t.Run("valid signature", func(t *testing.T) {
		sig := SignData("hello", key)
		assert.True(t, ValidateSignedData("hello", sig, key))
	})

	t.Run("tampered data", func(t *testing.T) {
		sig := SignData("hello", key)
		assert.False(t, ValidateSignedData("hellp", sig, key))
	})

	t.Run("wrong key", func(t *testing.T) {
		sig := SignData("hello", key)
		assert.False(t, ValidateSignedData("hello", sig, []byte("other-key")))
	})

	t.Run("malformed signature", func(t *testing.T) {
		assert.False(t, ValidateSignedData("hello", "not base64!!", key))
	})
}

func TestDeriveKey(t *testing.T) {
	master := []byte("master-secret-with-enough-length")

	t.Run("deterministic", func(t *testing.T) {
		a, err := DeriveKey(master, "purpose-a")
		require.NoError(t, err)
		b, err := DeriveKey(master, "purpose-a")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, 32)
	})

	t.Run("distinct purposes yield distinct keys", func(t *testing.T) {
		a, err := DeriveKey(master, "purpose-a")
		require.NoError(t, err)
		b, err := DeriveKey(master, "purpose-b")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestTokenSigner(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	key := []byte("test-signing-key")

	t.Run("round trip", func(t *testing.T) {
		signer := NewTokenSigner(key, time.Hour)
		token, err := signer.Sign(payload{Name: "alice"})
		require.NoError(t, err)

		var out payload
		require.NoError(t, signer.Verify(token, &out))
		assert.Equal(t, "alice", out.Name)
	})

	t.Run("tampered token", func(t *testing.T) {
		signer := NewTokenSigner(key, time.Hour)
		token, err := signer.Sign(payload{Name: "alice"})
		require.NoError(t, err)

		var out payload
		assert.Error(t, signer.Verify(token+"x", &out))
	})

	t.Run("wrong key", func(t *testing.T) {
		signer := NewTokenSigner(key, time.Hour)
		other := NewTokenSigner([]byte("another-key"), time.Hour)
		token, err := signer.Sign(payload{Name: "alice"})
		require.NoError(t, err)

		var out payload
		assert.Error(t, other.Verify(token, &out))
	})

	t.Run("expired token", func(t *testing.T) {
		signer := NewTokenSigner(key, -time.Second)
		token, err := signer.Sign(payload{Name: "alice"})
		require.NoError(t, err)

		var out payload
		err = signer.Verify(token, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		signer := NewTokenSigner(key, 0)
		token, err := signer.Sign(payload{Name: "alice"})
		require.NoError(t, err)

		var out payload
		assert.NoError(t, signer.Verify(token, &out))
	})

	t.Run("garbage token", func(t *testing.T) {
		signer := NewTokenSigner(key, time.Hour)
		var out payload
		assert.Error(t, signer.Verify("garbage", &out))
	})
}
