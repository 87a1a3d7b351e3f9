package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCodeChallenge(t *testing.T) {
	// Known vector from RFC 7636 appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", ComputeCodeChallenge(verifier))
}

func TestVerifyPKCE(t *testing.T) {
	verifier := "some-code-verifier-with-enough-entropy-12345"
	challenge := ComputeCodeChallenge(verifier)

	t.Run("matching verifier", func(t *testing.T) {
		assert.True(t, VerifyPKCE(verifier, challenge))
	})

	t.Run("wrong verifier", func(t *testing.T) {
		assert.False(t, VerifyPKCE("another-verifier-entirely-098765432101", challenge))
	})

	t.Run("empty verifier", func(t *testing.T) {
		assert.False(t, VerifyPKCE("", challenge))
	})

	t.Run("challenge is not a verifier", func(t *testing.T) {
		assert.False(t, VerifyPKCE(challenge, challenge))
	})
}
