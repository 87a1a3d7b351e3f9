package server

import (
	"net/http"
	"time"

	"github.com/paceline/auth-front/internal/crypto"
)

const sessionCookieName = "auth_front_session"

type sessionClaims struct {
	UserID string `json:"user_id"`
}

// SessionManager issues and reads the signed session cookie set after a
// successful upstream round trip. A valid session lets later authorization
// requests skip the upstream hop.
type SessionManager struct {
	signer crypto.TokenSigner
	maxAge time.Duration
}

// NewSessionManager creates a session manager with its own signing key.
func NewSessionManager(signingKey []byte, maxAge time.Duration) *SessionManager {
	return &SessionManager{
		signer: crypto.NewTokenSigner(signingKey, maxAge),
		maxAge: maxAge,
	}
}

// Set writes the session cookie for the user.
func (sm *SessionManager) Set(w http.ResponseWriter, r *http.Request, userID string) error {
	token, err := sm.signer.Sign(sessionClaims{UserID: userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sm.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// UserID returns the authenticated user from the session cookie, or "" when
// there is no valid session.
func (sm *SessionManager) UserID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	var claims sessionClaims
	if err := sm.signer.Verify(cookie.Value, &claims); err != nil {
		return ""
	}
	return claims.UserID
}

// Clear removes the session cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
