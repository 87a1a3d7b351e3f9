package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SignData computes an HMAC-SHA256 signature over data
func SignData(data string, signingKey []byte) string {
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignedData verifies an HMAC-SHA256 signature in constant time
func ValidateSignedData(data, signature string, signingKey []byte) bool {
	expected, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(data))
	return hmac.Equal(mac.Sum(nil), expected)
}

// DeriveKey derives a purpose-bound signing key from the master secret using
// HKDF-SHA256. Distinct info strings yield independent keys, so access and
// refresh tokens are never verifiable with each other's key.
func DeriveKey(masterSecret []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, masterSecret, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
