package oauth

import "github.com/paceline/auth-front/internal/urlutil"

// ServerMetadata is the RFC 8414 authorization server metadata document.
type ServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// ProtectedResourceMetadata is the RFC 9728 protected resource metadata
// document.
type ProtectedResourceMetadata struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
}

// NewServerMetadata builds the metadata document for a given issuer URL. All
// endpoint URLs are derived from the issuer at construction time.
func NewServerMetadata(issuer string) *ServerMetadata {
	return &ServerMetadata{
		Issuer:                            issuer,
		AuthorizationEndpoint:             urlutil.MustJoinPath(issuer, "/oauth/authorize"),
		TokenEndpoint:                     urlutil.MustJoinPath(issuer, "/oauth/token"),
		RegistrationEndpoint:              urlutil.MustJoinPath(issuer, "/oauth/register"),
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "client_credentials"},
		CodeChallengeMethodsSupported:     []string{"S256"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "none"},
	}
}

// NewProtectedResourceMetadata describes the resource server this
// authorization server fronts.
func NewProtectedResourceMetadata(resource, issuer string) *ProtectedResourceMetadata {
	return &ProtectedResourceMetadata{
		Resource:             resource,
		AuthorizationServers: []string{issuer},
	}
}
