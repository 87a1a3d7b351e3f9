package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewServerMetadata(t *testing.T) {
	md := NewServerMetadata("https://auth.example.com")

	assert.Equal(t, "https://auth.example.com", md.Issuer)
	assert.Equal(t, "https://auth.example.com/oauth/authorize", md.AuthorizationEndpoint)
	assert.Equal(t, "https://auth.example.com/oauth/token", md.TokenEndpoint)
	assert.Equal(t, "https://auth.example.com/oauth/register", md.RegistrationEndpoint)
	assert.Equal(t, []string{"code"}, md.ResponseTypesSupported)
	assert.Equal(t, []string{"authorization_code", "client_credentials"}, md.GrantTypesSupported)
	assert.Equal(t, []string{"S256"}, md.CodeChallengeMethodsSupported)
}

func TestNewServerMetadataWithPathPrefix(t *testing.T) {
	md := NewServerMetadata("https://example.com/auth")
	assert.Equal(t, "https://example.com/auth/oauth/authorize", md.AuthorizationEndpoint)
}

func TestNewProtectedResourceMetadata(t *testing.T) {
	md := NewProtectedResourceMetadata("https://api.example.com", "https://auth.example.com")
	assert.Equal(t, "https://api.example.com", md.Resource)
	assert.Equal(t, []string{"https://auth.example.com"}, md.AuthorizationServers)
}
