package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/paceline/auth-front/internal/crypto"
	"github.com/paceline/auth-front/internal/log"
	"github.com/paceline/auth-front/internal/storage"
	"github.com/paceline/auth-front/internal/upstream"
	"golang.org/x/sync/singleflight"
)

// EngineConfig carries the engine's collaborators and policy knobs. All of it
// is fixed at construction time.
type EngineConfig struct {
	Store    storage.CredentialStore
	Upstream upstream.Provider
	Issuer   *TokenIssuer
}

// Engine implements the authorization state machine: client registration,
// authorization requests, the upstream callback, and token grants. Handlers
// do transport-shape validation only; every protocol decision lives here.
type Engine struct {
	store    storage.CredentialStore
	upstream upstream.Provider
	issuer   *TokenIssuer

	// exchanges collapses concurrent upstream code exchanges for the same
	// callback. The upstream's authorization code is itself single-use, so a
	// double-submitted callback must not hit the upstream twice.
	exchanges singleflight.Group
}

// NewEngine creates the authorization engine.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		store:    cfg.Store,
		upstream: cfg.Upstream,
		issuer:   cfg.Issuer,
	}
}

// RegisterClient stores a new client from validated registration metadata and
// returns the issued client id with the echoed metadata.
func (e *Engine) RegisterClient(ctx context.Context, reg *ClientRegistration) (*RegistrationResponse, error) {
	clientID, err := crypto.GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client id: %w", err)
	}

	now := time.Now()
	client := &storage.Client{
		ID:           clientID,
		Name:         reg.ClientName,
		Scope:        reg.Scope,
		RedirectURIs: reg.RedirectURIs,
		CreatedAt:    now,
	}
	if err := e.store.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to store client: %w", err)
	}

	log.LogInfoWithFields("oauth", "Registered client", map[string]any{
		"client_id":   clientID,
		"client_name": reg.ClientName,
	})
	return reg.response(clientID, now), nil
}

// AuthorizeRequest is a validated authorization request.
type AuthorizeRequest struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ParseAuthorizeRequest validates the query parameters of an authorization
// request. All checks here are shape checks; nothing touches the store.
func ParseAuthorizeRequest(query url.Values) (*AuthorizeRequest, *Error) {
	req := &AuthorizeRequest{
		ClientID:            query.Get("client_id"),
		RedirectURI:         query.Get("redirect_uri"),
		ResponseType:        query.Get("response_type"),
		Scope:               query.Get("scope"),
		State:               query.Get("state"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
	}

	for _, p := range []struct{ name, value string }{
		{"client_id", req.ClientID},
		{"redirect_uri", req.RedirectURI},
		{"response_type", req.ResponseType},
		{"scope", req.Scope},
		{"state", req.State},
		{"code_challenge", req.CodeChallenge},
		{"code_challenge_method", req.CodeChallengeMethod},
	} {
		if p.value == "" {
			return nil, NewError(ErrInvalidRequest, "%s is required", p.name)
		}
	}

	if req.ResponseType != "code" {
		return nil, NewError(ErrUnsupportedResponseType, "response_type must be code")
	}
	if req.CodeChallengeMethod != "S256" {
		return nil, NewError(ErrInvalidRequest, "code_challenge_method must be S256")
	}
	return req, nil
}

// Authorize processes a validated authorization request. When userID is
// non-empty the caller already holds an authenticated session and gets an
// authorization code immediately; otherwise an authorization state is
// persisted and the user agent is sent to the upstream provider, with the
// state record's id as the correlation token. The client's own state value
// stays server-side until the final redirect.
func (e *Engine) Authorize(ctx context.Context, req *AuthorizeRequest, userID string) (string, error) {
	client, err := e.store.GetClient(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", NewError(ErrInvalidClient, "unknown client: %s", req.ClientID)
		}
		return "", fmt.Errorf("failed to look up client: %w", err)
	}

	if !slices.Contains(client.RedirectURIs, req.RedirectURI) {
		return "", NewError(ErrInvalidRequest, "redirect_uri is not registered for this client")
	}
	if req.Scope != client.Scope {
		return "", NewError(ErrInvalidScope, "scope does not match the registered scope")
	}

	if userID != "" {
		code, err := e.createCode(ctx, userID, req.ClientID, req.CodeChallenge, req.RedirectURI, req.Scope)
		if err != nil {
			return "", err
		}
		return redirectWithCode(req.RedirectURI, code.ID, req.State), nil
	}

	stateID, err := crypto.GenerateSecureToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate state id: %w", err)
	}
	state := &storage.AuthorizationState{
		ID:            stateID,
		ClientID:      req.ClientID,
		CodeChallenge: req.CodeChallenge,
		RedirectURI:   req.RedirectURI,
		Scope:         req.Scope,
		State:         req.State,
		CreatedAt:     time.Now(),
	}
	if err := e.store.CreateState(ctx, state); err != nil {
		return "", fmt.Errorf("failed to store authorization state: %w", err)
	}

	log.LogDebugWithFields("oauth", "Redirecting to upstream provider", map[string]any{
		"provider":  e.upstream.Name(),
		"client_id": req.ClientID,
	})
	return e.upstream.AuthorizeURL(stateID), nil
}

// CallbackResult is the outcome of a completed upstream round trip.
type CallbackResult struct {
	// RedirectURL sends the user agent back to the client with the issued
	// code and the client's original state value.
	RedirectURL string
	// UserID is the upstream-verified user, so the caller can establish a
	// session for future authorization requests.
	UserID string
}

// Callback completes the upstream round trip. The stateID is the correlation
// token handed to the upstream in Authorize; upstreamCode is the provider's
// own authorization code.
//
// Ordering matters: the authorization code is created before the state is
// deleted, so a crash in between leaves a retryable state rather than a
// stranded user. Of N concurrent callbacks for the same state, exactly one
// wins the final delete; losers report the state as already redeemed.
func (e *Engine) Callback(ctx context.Context, upstreamCode, stateID string) (*CallbackResult, error) {
	state, err := e.store.GetState(ctx, stateID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewError(ErrInvalidRequest, "unknown or expired state")
		}
		return nil, fmt.Errorf("failed to look up authorization state: %w", err)
	}

	userIDValue, err, _ := e.exchanges.Do(stateID, func() (any, error) {
		return e.upstream.ExchangeCode(ctx, upstreamCode)
	})
	if err != nil {
		// State stays in place so the user can restart the upstream hop
		// until the state expires.
		log.LogWarnWithFields("oauth", "Upstream code exchange failed", map[string]any{
			"provider": e.upstream.Name(),
			"error":    err.Error(),
		})
		return nil, NewError(ErrAccessDenied, "upstream code exchange failed")
	}
	userID := userIDValue.(string)

	code, err := e.createCode(ctx, userID, state.ClientID, state.CodeChallenge, state.RedirectURI, state.Scope)
	if err != nil {
		return nil, err
	}
	redirect := redirectWithCode(state.RedirectURI, code.ID, state.State)

	if err := e.store.DeleteState(ctx, stateID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewError(ErrInvalidRequest, "state already redeemed")
		}
		// The code exists and the user flow can complete; the dangling
		// state is bounded by its TTL.
		log.LogErrorWithFields("oauth", "Failed to delete authorization state", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("oauth", "Issued authorization code", map[string]any{
		"client_id": state.ClientID,
		"user_id":   userID,
	})
	return &CallbackResult{RedirectURL: redirect, UserID: userID}, nil
}

// Exchange processes a token request and mints a token pair.
func (e *Engine) Exchange(ctx context.Context, req TokenRequest) (*TokenPair, error) {
	switch grant := req.(type) {
	case AuthorizationCodeGrant:
		return e.exchangeCode(ctx, grant)
	case RefreshTokenGrant:
		return e.exchangeRefreshToken(grant)
	default:
		return nil, NewError(ErrUnsupportedGrantType, "unsupported grant type: %s", req.GrantType())
	}
}

func (e *Engine) exchangeCode(ctx context.Context, grant AuthorizationCodeGrant) (*TokenPair, error) {
	code, err := e.store.GetCode(ctx, grant.Code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewError(ErrInvalidGrant, "unknown or expired authorization code")
		}
		return nil, fmt.Errorf("failed to look up authorization code: %w", err)
	}

	if code.ClientID != grant.ClientID {
		return nil, NewError(ErrInvalidGrant, "authorization code was issued to another client")
	}
	if code.RedirectURI != grant.RedirectURI {
		return nil, NewError(ErrInvalidGrant, "redirect_uri does not match the authorization request")
	}
	if !VerifyPKCE(grant.CodeVerifier, code.CodeChallenge) {
		return nil, NewError(ErrInvalidGrant, "code verifier does not match the code challenge")
	}

	pair, err := e.issuer.Mint(code.UserID, code.ClientID, code.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to mint tokens: %w", err)
	}

	// Delete last. On a transient store failure the code stays valid and
	// the client can retry; on ErrNotFound a concurrent redemption won and
	// these tokens are discarded.
	if err := e.store.DeleteCode(ctx, grant.Code); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewError(ErrInvalidGrant, "authorization code already redeemed")
		}
		return nil, fmt.Errorf("failed to delete authorization code: %w", err)
	}

	log.LogInfoWithFields("oauth", "Issued token pair", map[string]any{
		"grant_type": grant.GrantType(),
		"client_id":  grant.ClientID,
		"user_id":    code.UserID,
	})
	return pair, nil
}

func (e *Engine) exchangeRefreshToken(grant RefreshTokenGrant) (*TokenPair, error) {
	payload, err := e.issuer.VerifyRefreshToken(grant.RefreshToken)
	if err != nil {
		return nil, NewError(ErrAccessDenied, "invalid refresh token")
	}

	if payload.ClientID != grant.ClientID {
		return nil, NewError(ErrInvalidGrant, "refresh token was issued to another client")
	}
	if payload.Scope == "" {
		return nil, NewError(ErrInvalidScope, "refresh token carries no scope")
	}

	pair, err := e.issuer.Mint(payload.UserID, payload.ClientID, payload.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to mint tokens: %w", err)
	}

	log.LogInfoWithFields("oauth", "Refreshed token pair", map[string]any{
		"grant_type": grant.GrantType(),
		"client_id":  grant.ClientID,
	})
	return pair, nil
}

func (e *Engine) createCode(ctx context.Context, userID, clientID, codeChallenge, redirectURI, scope string) (*storage.AuthorizationCode, error) {
	codeID, err := crypto.GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code id: %w", err)
	}
	code := &storage.AuthorizationCode{
		ID:            codeID,
		UserID:        userID,
		ClientID:      clientID,
		CodeChallenge: codeChallenge,
		RedirectURI:   redirectURI,
		Scope:         scope,
		CreatedAt:     time.Now(),
	}
	if err := e.store.CreateCode(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to store authorization code: %w", err)
	}
	return code, nil
}

func redirectWithCode(redirectURI, code, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// Registered and matched against the authorization request, so this
		// is unreachable with a valid store.
		return redirectURI
	}
	q := u.Query()
	q.Set("code", code)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}
