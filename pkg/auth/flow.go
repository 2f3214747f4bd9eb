package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/streamware/donationalerts/pkg/apicall"
)

// Endpoint is the Donation Alerts OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.donationalerts.com/oauth/authorize",
	TokenURL: "https://www.donationalerts.com/oauth/token",
}

// AuthCodeURL builds the authorization URL a user visits to grant the given
// scopes. The state value is echoed back on the redirect and should be
// verified by the caller.
func AuthCodeURL(clientID, redirectURI, state string, scopes ...string) string {
	cfg := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint:    Endpoint,
	}
	return cfg.AuthCodeURL(state)
}

// tokenResponse is the wire shape of the OAuth token endpoint.
type tokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    *int64 `json:"expires_in"`
}

func (r tokenResponse) toAccessToken() AccessToken {
	return AccessToken{
		AccessToken:         r.AccessToken,
		RefreshToken:        r.RefreshToken,
		ExpiresIn:           r.ExpiresIn,
		ObtainmentTimestamp: time.Now(),
	}
}

// ExchangeCode trades an authorization code for a fresh token. The response
// does not report granted scopes; callers attach them separately.
func ExchangeCode(ctx context.Context, c *apicall.Client, clientID, clientSecret, redirectURI, code string) (AccessToken, error) {
	resp, err := apicall.Call[tokenResponse](ctx, c, apicall.CallOptions{
		URL:    "token",
		Type:   apicall.TypeAuth,
		Method: http.MethodPost,
		FormBody: url.Values{
			"grant_type":    {"authorization_code"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
			"redirect_uri":  {redirectURI},
			"code":          {code},
		},
	}, "")
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return resp.toAccessToken(), nil
}

// RefreshAccessToken trades a refresh token for a new access token.
func RefreshAccessToken(ctx context.Context, c *apicall.Client, clientID, clientSecret, refreshToken string) (AccessToken, error) {
	resp, err := apicall.Call[tokenResponse](ctx, c, apicall.CallOptions{
		URL:    "token",
		Type:   apicall.TypeAuth,
		Method: http.MethodPost,
		FormBody: url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
			"refresh_token": {refreshToken},
		},
	}, "")
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to refresh access token: %w", err)
	}
	return resp.toAccessToken(), nil
}
