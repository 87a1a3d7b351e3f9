package oauth

import "time"

// ClientRegistration is a validated dynamic client registration request.
type ClientRegistration struct {
	ClientName              string
	GrantTypes              []string
	ResponseTypes           []string
	TokenEndpointAuthMethod string
	Scope                   string
	RedirectURIs            []string
}

// RegistrationResponse echoes the accepted metadata back with the issued
// client id.
type RegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientName              string   `json:"client_name"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	Scope                   string   `json:"scope"`
	RedirectURIs            []string `json:"redirect_uris"`
}

// ParseClientRegistration validates the shape of a registration body. The
// checks are deliberately exact: each field must be present with the right
// JSON type, and token_endpoint_auth_method must be client_secret_post.
func ParseClientRegistration(body map[string]any) (*ClientRegistration, *Error) {
	clientName, ok := body["client_name"].(string)
	if !ok || clientName == "" {
		return nil, NewError(ErrInvalidClientMetadata, "client_name must be a non-empty string")
	}

	grantTypes, ok := stringSlice(body["grant_types"])
	if !ok {
		return nil, NewError(ErrInvalidClientMetadata, "grant_types must be an array of strings")
	}

	responseTypes, ok := stringSlice(body["response_types"])
	if !ok {
		return nil, NewError(ErrInvalidClientMetadata, "response_types must be an array of strings")
	}

	authMethod, ok := body["token_endpoint_auth_method"].(string)
	if !ok || authMethod != "client_secret_post" {
		return nil, NewError(ErrInvalidClientMetadata, "token_endpoint_auth_method must be client_secret_post")
	}

	scope, ok := body["scope"].(string)
	if !ok || scope == "" {
		return nil, NewError(ErrInvalidClientMetadata, "scope must be a non-empty string")
	}

	redirectURIs, ok := stringSlice(body["redirect_uris"])
	if !ok || len(redirectURIs) == 0 {
		return nil, NewError(ErrInvalidClientMetadata, "redirect_uris must be a non-empty array of strings")
	}

	return &ClientRegistration{
		ClientName:              clientName,
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		TokenEndpointAuthMethod: authMethod,
		Scope:                   scope,
		RedirectURIs:            redirectURIs,
	}, nil
}

func (r *ClientRegistration) response(clientID string, issuedAt time.Time) *RegistrationResponse {
	return &RegistrationResponse{
		ClientID:                clientID,
		ClientIDIssuedAt:        issuedAt.Unix(),
		ClientName:              r.ClientName,
		GrantTypes:              r.GrantTypes,
		ResponseTypes:           r.ResponseTypes,
		TokenEndpointAuthMethod: r.TokenEndpointAuthMethod,
		Scope:                   r.Scope,
		RedirectURIs:            r.RedirectURIs,
	}
}

// stringSlice coerces a decoded JSON array into []string. JSON decoding
// yields []any, so each element needs its own type check.
func stringSlice(v any) ([]string, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
