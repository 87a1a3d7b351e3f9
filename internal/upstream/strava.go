package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/paceline/auth-front/internal/log"
	"golang.org/x/oauth2"
)

const (
	stravaAuthURL  = "https://www.strava.com/oauth/authorize"
	stravaTokenURL = "https://www.strava.com/oauth/token"
)

// StravaConfig configures the Strava provider.
type StravaConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// AuthURL and TokenURL override the Strava endpoints, used in tests.
	AuthURL  string
	TokenURL string
}

// StravaProvider implements Provider against the Strava OAuth API.
type StravaProvider struct {
	config *oauth2.Config
	scopes []string
}

var _ Provider = (*StravaProvider)(nil)

// NewStravaProvider creates a Strava identity provider.
func NewStravaProvider(cfg StravaConfig) *StravaProvider {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = stravaAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = stravaTokenURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read", "activity:read_all"}
	}

	return &StravaProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		scopes: scopes,
	}
}

func (p *StravaProvider) Name() string {
	return "strava"
}

// AuthorizeURL builds the Strava authorization URL. Strava expects its scopes
// comma-separated rather than the space-separated form oauth2 produces, so
// the scope parameter is set explicitly.
func (p *StravaProvider) AuthorizeURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", strings.Join(p.scopes, ",")),
		oauth2.SetAuthURLParam("approval_prompt", "auto"),
	)
}

// ExchangeCode trades the authorization code for a token and extracts the
// athlete id from the token response.
func (p *StravaProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code with Strava: %w", err)
	}

	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return "", fmt.Errorf("Strava token response missing athlete object")
	}

	// JSON numbers decode as float64
	id, ok := athlete["id"].(float64)
	if !ok {
		return "", fmt.Errorf("Strava athlete object missing numeric id")
	}

	userID := fmt.Sprintf("%.0f", id)
	log.LogDebugWithFields("upstream", "Exchanged code with Strava", map[string]any{
		"athlete_id": userID,
	})
	return userID, nil
}
