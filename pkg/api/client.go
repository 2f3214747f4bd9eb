// Package api is the high-level Donation Alerts client. It orchestrates the
// auth provider, the rate-limited dispatcher, and the raw transport, and
// exposes the API surface as typed resource namespaces.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
	"github.com/streamware/donationalerts/pkg/idx"
	"github.com/streamware/donationalerts/pkg/ratelimit"
	"github.com/streamware/donationalerts/pkg/slogx"
)

// ErrNoAuthProvider is returned by NewClient when no auth provider is given.
var ErrNoAuthProvider = errors.New("an auth provider is required")

// Config configures a Client.
type Config struct {
	// AuthProvider supplies access tokens. Required.
	AuthProvider auth.Provider

	// ClientSecret signs merchandise requests. Only needed for the
	// merchandise namespace.
	ClientSecret string

	// HTTPClient overrides the transport's underlying HTTP client.
	HTTPClient *http.Client

	// Transport overrides the raw API transport. Primarily useful for
	// tests.
	Transport *apicall.Client

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger

	// RateLimit tunes the dispatcher. The zero value applies the
	// documented Donation Alerts limits with enqueue overflow behavior.
	RateLimit ratelimit.Config
}

// dispatchRequest is the unit of work admitted through the rate limiter.
type dispatchRequest struct {
	opts  apicall.CallOptions
	token string
}

// Client is the Donation Alerts API client.
type Client struct {
	provider  auth.Provider
	secret    string
	transport *apicall.Client
	logger    *slog.Logger
	limiter   *ratelimit.Limiter[dispatchRequest, *http.Response]
}

// NewClient creates a client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AuthProvider == nil {
		return nil, ErrNoAuthProvider
	}

	transport := cfg.Transport
	if transport == nil {
		transport = apicall.New()
	}
	if cfg.HTTPClient != nil {
		transport.HTTPClient = cfg.HTTPClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slogx.Nop()
	}

	c := &Client{
		provider:  cfg.AuthProvider,
		secret:    cfg.ClientSecret,
		transport: transport,
		logger:    logger,
	}
	c.limiter = ratelimit.New(cfg.RateLimit, func(ctx context.Context, d dispatchRequest) (*http.Response, error) {
		return c.transport.Do(ctx, d.opts, d.token)
	})
	return c, nil
}

// AuthProvider returns the provider the client was configured with.
func (c *Client) AuthProvider() auth.Provider { return c.provider }

// Close stops the rate limiter's admission worker.
func (c *Client) Close() { c.limiter.Close() }

// Users accesses the user endpoints.
func (c *Client) Users() *UsersAPI { return &UsersAPI{client: c} }

// Donations accesses the donation endpoints.
func (c *Client) Donations() *DonationsAPI { return &DonationsAPI{client: c} }

// CustomAlerts accesses the custom alert endpoints.
func (c *Client) CustomAlerts() *CustomAlertsAPI { return &CustomAlertsAPI{client: c} }

// Centrifugo accesses the realtime channel subscription endpoints.
func (c *Client) Centrifugo() *CentrifugoAPI { return &CentrifugoAPI{client: c} }

// Merchandise accesses the merchandise endpoints.
func (c *Client) Merchandise() *MerchandiseAPI { return &MerchandiseAPI{client: c} }

// Call performs an API call on behalf of the given user and decodes the
// response into T. The user's token is resolved through the auth provider,
// the call is admitted through the rate limiter, and a 401 response triggers
// a forced refresh and a single retry when the provider supports it.
func Call[T any](ctx context.Context, c *Client, user any, opts apicall.CallOptions) (T, error) {
	return CallWithBehavior[T](ctx, c, user, opts, "")
}

// CallWithBehavior is Call with an explicit rate limit overflow behavior for
// this request.
func CallWithBehavior[T any](ctx context.Context, c *Client, user any, opts apicall.CallOptions, behavior ratelimit.Behavior) (T, error) {
	var scopes []string
	if opts.Scope != "" {
		scopes = []string{opts.Scope}
	}
	return doCall[T](ctx, c, user, opts, scopes, behavior)
}

func doCall[T any](ctx context.Context, c *Client, user any, opts apicall.CallOptions, scopes []string, behavior ratelimit.Behavior) (T, error) {
	var zero T

	logger := c.logger.With(
		"req_id", idx.New().String(),
		"method", opts.Method,
		"url", opts.URL,
	)
	logger.DebugContext(ctx, "dispatching api call")

	if opts.NoAuth {
		resp, err := c.send(ctx, opts, "", behavior)
		if err != nil {
			return zero, err
		}
		if resp == nil {
			return zero, nil
		}
		if err := apicall.HandleResponseError(resp, c.transport, opts); err != nil {
			return zero, err
		}
		return apicall.Decode[T](resp)
	}

	token, err := c.provider.GetAccessTokenForUser(ctx, user, scopes...)
	if err != nil {
		return zero, err
	}

	resp, err := c.send(ctx, opts, token.AccessToken.AccessToken, behavior)
	if err != nil {
		return zero, err
	}
	if resp == nil {
		// The request was dropped by the rate limiter.
		return zero, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		refresher, ok := c.provider.(auth.RefreshableProvider)
		if ok {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			logger.DebugContext(ctx, "retrying api call after 401")
			fresh, err := refresher.RefreshAccessTokenForUser(ctx, user)
			if err != nil {
				return zero, err
			}

			resp, err = c.send(ctx, opts, fresh.AccessToken.AccessToken, behavior)
			if err != nil {
				return zero, err
			}
			if resp == nil {
				return zero, nil
			}
		}
	}

	if err := apicall.HandleResponseError(resp, c.transport, opts); err != nil {
		return zero, err
	}
	return apicall.Decode[T](resp)
}

// send dispatches one HTTP call. Token endpoint traffic is low-frequency and
// time-sensitive, so only api-type calls go through the limiter.
func (c *Client) send(ctx context.Context, opts apicall.CallOptions, token string, behavior ratelimit.Behavior) (*http.Response, error) {
	if opts.Type == apicall.TypeAuth {
		return c.transport.Do(ctx, opts, token)
	}
	d := dispatchRequest{opts: opts, token: token}
	if behavior == "" {
		return c.limiter.Do(ctx, d)
	}
	return c.limiter.DoWithBehavior(ctx, d, behavior)
}
