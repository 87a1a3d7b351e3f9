package server

import (
	"encoding/json"
	"errors"
	"net/http"

	jsonwriter "github.com/paceline/auth-front/internal/json"
	"github.com/paceline/auth-front/internal/log"
	"github.com/paceline/auth-front/internal/oauth"
)

// AuthHandlers implements the OAuth HTTP surface. Handlers validate
// transport shape and delegate every protocol decision to the engine.
type AuthHandlers struct {
	engine           *oauth.Engine
	sessions         *SessionManager
	metadata         *oauth.ServerMetadata
	resourceMetadata *oauth.ProtectedResourceMetadata
}

// NewAuthHandlers creates the OAuth endpoint handlers.
func NewAuthHandlers(engine *oauth.Engine, sessions *SessionManager, metadata *oauth.ServerMetadata, resourceMetadata *oauth.ProtectedResourceMetadata) *AuthHandlers {
	return &AuthHandlers{
		engine:           engine,
		sessions:         sessions,
		metadata:         metadata,
		resourceMetadata: resourceMetadata,
	}
}

// writeOAuthError maps an engine error to the OAuth error response body.
// Anything that isn't a protocol error is a backend failure and answers 500.
func writeOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *oauth.Error
	if errors.As(err, &oauthErr) {
		_ = jsonwriter.WriteResponse(w, oauthErr.HTTPStatus(), oauthErr)
		return
	}

	log.LogError("OAuth operation failed: %v", err)
	serverErr := oauth.NewError(oauth.ErrServerError, "internal server error")
	_ = jsonwriter.WriteResponse(w, serverErr.HTTPStatus(), serverErr)
}

// MetadataHandler serves the authorization server metadata document
func (h *AuthHandlers) MetadataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	_ = jsonwriter.Write(w, h.metadata)
}

// ProtectedResourceMetadataHandler serves the protected resource metadata
// document
func (h *AuthHandlers) ProtectedResourceMetadataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	_ = jsonwriter.Write(w, h.resourceMetadata)
}

// RegisterHandler handles dynamic client registration
func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeOAuthError(w, oauth.NewError(oauth.ErrInvalidClientMetadata, "request body must be a JSON object"))
		return
	}

	reg, oauthErr := oauth.ParseClientRegistration(body)
	if oauthErr != nil {
		writeOAuthError(w, oauthErr)
		return
	}

	resp, err := h.engine.RegisterClient(r.Context(), reg)
	if err != nil {
		writeOAuthError(w, err)
		return
	}
	_ = jsonwriter.WriteResponse(w, http.StatusCreated, resp)
}

// AuthorizeHandler handles authorization requests
func (h *AuthHandlers) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	req, oauthErr := oauth.ParseAuthorizeRequest(r.URL.Query())
	if oauthErr != nil {
		writeOAuthError(w, oauthErr)
		return
	}

	redirect, err := h.engine.Authorize(r.Context(), req, h.sessions.UserID(r))
	if err != nil {
		writeOAuthError(w, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// CallbackHandler completes the upstream round trip. The upstream echoes the
// state-record id in the state query parameter.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	query := r.URL.Query()
	upstreamCode := query.Get("code")
	stateID := query.Get("state")
	if upstreamCode == "" || stateID == "" {
		writeOAuthError(w, oauth.NewError(oauth.ErrInvalidRequest, "code and state are required"))
		return
	}

	result, err := h.engine.Callback(r.Context(), upstreamCode, stateID)
	if err != nil {
		writeOAuthError(w, err)
		return
	}

	if err := h.sessions.Set(w, r, result.UserID); err != nil {
		// The code was issued; a missing session only means the next
		// authorization request takes the upstream hop again.
		log.LogWarn("Failed to set session cookie: %v", err)
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// TokenHandler handles token and refresh token grants
func (h *AuthHandlers) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, oauth.NewError(oauth.ErrInvalidRequest, "malformed form body"))
		return
	}

	grant, oauthErr := oauth.ParseTokenRequest(r.PostForm)
	if oauthErr != nil {
		writeOAuthError(w, oauthErr)
		return
	}

	pair, err := h.engine.Exchange(r.Context(), grant)
	if err != nil {
		writeOAuthError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	_ = jsonwriter.Write(w, pair)
}
