package auth

import "context"

// Provider supplies access tokens for registered users. User arguments
// accept anything pkg/userx can resolve: an integer, a numeric string, or a
// value exposing a UserID method.
type Provider interface {
	// ClientID returns the OAuth application identity this provider was
	// configured with.
	ClientID() string

	// GetScopesForUser returns the scopes granted to the user's current
	// token. Fails with *UnregisteredUserError for unknown users.
	GetScopesForUser(user any) ([]string, error)

	// GetAccessTokenForUser returns the user's current token, annotated
	// with the user ID. Fails with *UnregisteredUserError for unknown
	// users and with *MissingScopeError when the token does not cover the
	// requested scopes. Refresh-capable providers transparently refresh
	// expired tokens before returning.
	GetAccessTokenForUser(ctx context.Context, user any, scopes ...string) (AccessTokenWithUserID, error)
}

// RefreshableProvider is implemented by providers that can force a token
// refresh. Callers use a type assertion to discover the capability; its
// absence means 401-triggered retries are not possible.
type RefreshableProvider interface {
	Provider

	// RefreshAccessTokenForUser unconditionally refreshes the user's
	// token and returns the new one.
	RefreshAccessTokenForUser(ctx context.Context, user any) (AccessTokenWithUserID, error)
}
