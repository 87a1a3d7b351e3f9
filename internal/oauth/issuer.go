package oauth

import (
	"time"

	"github.com/paceline/auth-front/internal/crypto"
)

// TokenPair is the token endpoint success body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// AccessTokenClaims is the payload embedded in signed access tokens.
type AccessTokenClaims struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// RefreshTokenPayload is the payload embedded in signed refresh tokens. The
// server keeps no refresh token state; the signature is the only proof of
// issuance.
type RefreshTokenPayload struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// TokenIssuer mints and verifies the token pairs handed to clients. Access
// and refresh tokens are signed with independent keys derived from the same
// master secret, so one kind never verifies as the other.
type TokenIssuer struct {
	accessSigner  crypto.TokenSigner
	refreshSigner crypto.TokenSigner
	accessTTL     time.Duration
}

// NewTokenIssuer creates a token issuer from the master signing secret.
// Refresh tokens never expire on their own; repeated refreshes with the same
// token keep working until the client re-authorizes.
func NewTokenIssuer(masterSecret []byte, accessTTL time.Duration) (*TokenIssuer, error) {
	accessKey, err := crypto.DeriveKey(masterSecret, "auth-front/access-token")
	if err != nil {
		return nil, err
	}
	refreshKey, err := crypto.DeriveKey(masterSecret, "auth-front/refresh-token")
	if err != nil {
		return nil, err
	}

	return &TokenIssuer{
		accessSigner:  crypto.NewTokenSigner(accessKey, accessTTL),
		refreshSigner: crypto.NewTokenSigner(refreshKey, 0),
		accessTTL:     accessTTL,
	}, nil
}

// Mint issues a fresh access/refresh pair for the user-client-scope triple.
func (ti *TokenIssuer) Mint(userID, clientID, scope string) (*TokenPair, error) {
	accessToken, err := ti.accessSigner.Sign(AccessTokenClaims{
		UserID:   userID,
		ClientID: clientID,
		Scope:    scope,
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := ti.refreshSigner.Sign(RefreshTokenPayload{
		UserID:   userID,
		ClientID: clientID,
		Scope:    scope,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ti.accessTTL.Seconds()),
		RefreshToken: refreshToken,
		Scope:        scope,
	}, nil
}

// VerifyAccessToken checks the signature and expiry of an access token and
// returns its claims.
func (ti *TokenIssuer) VerifyAccessToken(token string) (*AccessTokenClaims, error) {
	var claims AccessTokenClaims
	if err := ti.accessSigner.Verify(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// VerifyRefreshToken checks the signature of a refresh token and returns its
// payload.
func (ti *TokenIssuer) VerifyRefreshToken(token string) (*RefreshTokenPayload, error) {
	var payload RefreshTokenPayload
	if err := ti.refreshSigner.Verify(token, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
