package oauth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// ComputeCodeChallenge derives the S256 code challenge from a verifier:
// base64url(SHA-256(verifier)) without padding.
func ComputeCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyPKCE checks a code verifier against the challenge stored at
// authorization time. Constant-time comparison, both inputs are
// attacker-influenced.
func VerifyPKCE(verifier, challenge string) bool {
	computed := ComputeCodeChallenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
