package oauth

import "net/url"

// TokenRequest is a parsed token endpoint request. Exactly two
// implementations exist, one per supported grant type; handlers switch on the
// concrete type so a grant can never be processed with another grant's
// fields.
type TokenRequest interface {
	GrantType() string
}

// AuthorizationCodeGrant redeems a single-use authorization code.
type AuthorizationCodeGrant struct {
	ClientID     string
	Code         string
	CodeVerifier string
	RedirectURI  string
}

func (AuthorizationCodeGrant) GrantType() string { return "authorization_code" }

// RefreshTokenGrant trades a refresh token for a fresh pair.
type RefreshTokenGrant struct {
	ClientID     string
	RefreshToken string
}

func (RefreshTokenGrant) GrantType() string { return "refresh_token" }

// ParseTokenRequest validates the form fields of a token request and returns
// the typed grant. Unknown grant types and missing required fields are
// protocol errors.
func ParseTokenRequest(form url.Values) (TokenRequest, *Error) {
	grantType := form.Get("grant_type")
	clientID := form.Get("client_id")

	switch grantType {
	case "authorization_code":
		grant := AuthorizationCodeGrant{
			ClientID:     clientID,
			Code:         form.Get("code"),
			CodeVerifier: form.Get("code_verifier"),
			RedirectURI:  form.Get("redirect_uri"),
		}
		if grant.Code == "" || grant.ClientID == "" || grant.CodeVerifier == "" || grant.RedirectURI == "" {
			return nil, NewError(ErrInvalidRequest, "code, client_id, code_verifier and redirect_uri are required")
		}
		return grant, nil

	case "refresh_token":
		grant := RefreshTokenGrant{
			ClientID:     clientID,
			RefreshToken: form.Get("refresh_token"),
		}
		if grant.RefreshToken == "" || grant.ClientID == "" {
			return nil, NewError(ErrInvalidRequest, "refresh_token and client_id are required")
		}
		return grant, nil

	case "":
		return nil, NewError(ErrInvalidRequest, "grant_type is required")

	default:
		return nil, NewError(ErrUnsupportedGrantType, "unsupported grant type: %s", grantType)
	}
}
