// Package upstream bridges delegated authentication to an external identity
// provider. The provider verifies the end user and hands back a stable user
// id; everything else about the upstream's token is discarded.
package upstream

import "context"

// Provider is an upstream identity provider.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// AuthorizeURL builds the URL to redirect the user agent to. The state
	// value is the correlation token the provider echoes back on callback.
	AuthorizeURL(state string) string

	// ExchangeCode trades the provider's authorization code for the verified
	// user's id.
	ExchangeCode(ctx context.Context, code string) (string, error)
}
