package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/userx"
)

// ErrNoRedirectURI is returned by AddUserForCode when the provider was
// configured without a redirect URI.
var ErrNoRedirectURI = errors.New("a redirect URI must be configured to exchange authorization codes")

// RefreshListener receives a notification after every successful token
// refresh or registration-triggered refresh. Hosts typically persist the new
// credentials here.
type RefreshListener func(userID int64, token AccessToken)

// RefreshingConfig configures a RefreshingProvider.
type RefreshingConfig struct {
	// ClientID and ClientSecret identify the OAuth application. Required.
	ClientID     string
	ClientSecret string

	// RedirectURI is required only for authorization-code exchange.
	RedirectURI string

	// Scopes is the minimum scope set every registered token must carry.
	Scopes []string

	// API overrides the transport client. Defaults to apicall.New().
	API *apicall.Client

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
}

// RefreshingProvider serves tokens that are refreshed automatically on
// expiry. Refreshes are coalesced per user, so concurrent callers asking for
// an expired user's token share a single network round trip.
type RefreshingProvider struct {
	cfg    RefreshingConfig
	api    *apicall.Client
	logger *slog.Logger

	mu       sync.RWMutex
	registry map[int64]AccessToken

	group singleflight.Group

	listenerMu   sync.Mutex
	listeners    map[int]RefreshListener
	nextListener int
}

var _ RefreshableProvider = (*RefreshingProvider)(nil)

// NewRefreshingProvider creates a provider from the given configuration.
func NewRefreshingProvider(cfg RefreshingConfig) *RefreshingProvider {
	api := cfg.API
	if api == nil {
		api = apicall.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RefreshingProvider{
		cfg:       cfg,
		api:       api,
		logger:    logger,
		registry:  make(map[int64]AccessToken),
		listeners: make(map[int]RefreshListener),
	}
}

// ClientID returns the OAuth application identity.
func (p *RefreshingProvider) ClientID() string { return p.cfg.ClientID }

// OnRefresh subscribes to refresh notifications. The returned function
// removes the subscription.
func (p *RefreshingProvider) OnRefresh(fn RefreshListener) func() {
	p.listenerMu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	p.listenerMu.Unlock()

	return func() {
		p.listenerMu.Lock()
		delete(p.listeners, id)
		p.listenerMu.Unlock()
	}
}

func (p *RefreshingProvider) notifyRefresh(userID int64, token AccessToken) {
	p.listenerMu.Lock()
	listeners := make([]RefreshListener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(userID, token)
	}
}

// AddUser registers a known user with an existing token. Both the access and
// refresh token strings must be non-empty, and the token's scopes must cover
// the configured minimum.
func (p *RefreshingProvider) AddUser(user any, token AccessToken) (AccessTokenWithUserID, error) {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return AccessTokenWithUserID{}, &InvalidTokenError{UserID: userID}
	}
	if err := CompareScopes(token.Scopes, p.cfg.Scopes, userID); err != nil {
		return AccessTokenWithUserID{}, err
	}

	stored := token
	stored.Scopes = cloneScopes(token.Scopes)

	p.mu.Lock()
	p.registry[userID] = stored
	p.mu.Unlock()

	return stored.withUserID(userID), nil
}

// AddUserForToken registers a user from a bare token. The token is refreshed
// once to learn its canonical lifetime (the API has no introspection
// endpoint), and the owning user is discovered through the user identity
// endpoint. A 401 from the identity lookup is reported as a
// *MissingScopeError naming the user-identity scope.
func (p *RefreshingProvider) AddUserForToken(ctx context.Context, token AccessToken) (AccessTokenWithUserID, error) {
	if token.AccessToken == "" || token.RefreshToken == "" {
		return AccessTokenWithUserID{}, &InvalidTokenError{}
	}
	if len(token.Scopes) > 0 {
		if err := CompareScopes(token.Scopes, p.cfg.Scopes, 0); err != nil {
			return AccessTokenWithUserID{}, err
		}
	}

	refreshed, err := RefreshAccessToken(ctx, p.api, p.cfg.ClientID, p.cfg.ClientSecret, token.RefreshToken)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	refreshed.Scopes = cloneScopes(token.Scopes)

	userID, err := p.fetchUserID(ctx, refreshed.AccessToken)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}

	p.mu.Lock()
	p.registry[userID] = refreshed
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "registered user from token", "user_id", userID)
	p.notifyRefresh(userID, refreshed)

	return refreshed.withUserID(userID), nil
}

// AddUserForCode registers a user by exchanging an authorization code. The
// token endpoint does not report granted scopes, so the caller supplies the
// scopes it requested during authorization.
func (p *RefreshingProvider) AddUserForCode(ctx context.Context, code string, scopes ...string) (AccessTokenWithUserID, error) {
	if p.cfg.RedirectURI == "" {
		return AccessTokenWithUserID{}, ErrNoRedirectURI
	}

	token, err := ExchangeCode(ctx, p.api, p.cfg.ClientID, p.cfg.ClientSecret, p.cfg.RedirectURI, code)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	token.Scopes = cloneScopes(scopes)

	userID, err := p.fetchUserID(ctx, token.AccessToken)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	if err := CompareScopes(token.Scopes, p.cfg.Scopes, userID); err != nil {
		return AccessTokenWithUserID{}, err
	}

	p.mu.Lock()
	p.registry[userID] = token
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "registered user from authorization code", "user_id", userID)
	p.notifyRefresh(userID, token)

	return token.withUserID(userID), nil
}

// RemoveUser drops the user's credentials. An in-flight refresh for the user
// is not cancelled, but its result is discarded rather than re-registered.
// Removing an unknown user is a no-op.
func (p *RefreshingProvider) RemoveUser(user any) error {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.registry, userID)
	p.mu.Unlock()
	return nil
}

// HasUser reports whether credentials are registered for the user.
func (p *RefreshingProvider) HasUser(user any) bool {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return false
	}
	p.mu.RLock()
	_, ok := p.registry[userID]
	p.mu.RUnlock()
	return ok
}

// GetScopesForUser returns the scopes attached to the user's current token.
func (p *RefreshingProvider) GetScopesForUser(user any) ([]string, error) {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	token, ok := p.registry[userID]
	p.mu.RUnlock()
	if !ok {
		return nil, &UnregisteredUserError{UserID: userID}
	}
	return cloneScopes(token.Scopes), nil
}

// GetAccessTokenForUser returns a valid token for the user, refreshing it
// first when expired. Concurrent callers hitting an expired token share a
// single refresh.
func (p *RefreshingProvider) GetAccessTokenForUser(ctx context.Context, user any, scopes ...string) (AccessTokenWithUserID, error) {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}

	p.mu.RLock()
	token, ok := p.registry[userID]
	p.mu.RUnlock()
	if !ok {
		return AccessTokenWithUserID{}, &UnregisteredUserError{UserID: userID}
	}

	if token.AccessToken != "" && !token.IsExpired() {
		if err := CompareScopes(token.Scopes, scopes, userID); err != nil {
			return AccessTokenWithUserID{}, err
		}
		return token.withUserID(userID), nil
	}

	refreshed, err := p.refreshUser(ctx, userID)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	if err := CompareScopes(refreshed.Scopes, scopes, userID); err != nil {
		return AccessTokenWithUserID{}, err
	}
	return refreshed.withUserID(userID), nil
}

// RefreshAccessTokenForUser forces a refresh of the user's token.
func (p *RefreshingProvider) RefreshAccessTokenForUser(ctx context.Context, user any) (AccessTokenWithUserID, error) {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}

	refreshed, err := p.refreshUser(ctx, userID)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	return refreshed.withUserID(userID), nil
}

// refreshUser performs the single-flight refresh for a user. The new token
// carries the prior token's scopes, since the token endpoint does not report
// them. If the user was removed while the refresh was in flight, the result
// is returned to waiting callers but not stored, and no notification fires.
func (p *RefreshingProvider) refreshUser(ctx context.Context, userID int64) (AccessToken, error) {
	result, err, _ := p.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		p.mu.RLock()
		current, ok := p.registry[userID]
		p.mu.RUnlock()
		if !ok {
			return nil, &UnregisteredUserError{UserID: userID}
		}
		if current.RefreshToken == "" {
			return nil, &InvalidTokenError{UserID: userID}
		}

		refreshed, err := RefreshAccessToken(ctx, p.api, p.cfg.ClientID, p.cfg.ClientSecret, current.RefreshToken)
		if err != nil {
			return nil, err
		}
		refreshed.Scopes = cloneScopes(current.Scopes)

		p.mu.Lock()
		_, registered := p.registry[userID]
		if registered {
			p.registry[userID] = refreshed
		}
		p.mu.Unlock()

		if registered {
			p.logger.DebugContext(ctx, "refreshed access token", "user_id", userID)
			p.notifyRefresh(userID, refreshed)
		}
		return refreshed, nil
	})
	if err != nil {
		return AccessToken{}, err
	}
	return result.(AccessToken), nil
}

// fetchUserID resolves the owning user of a token through the user identity
// endpoint.
func (p *RefreshingProvider) fetchUserID(ctx context.Context, accessToken string) (int64, error) {
	type envelope struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}

	out, err := apicall.Call[envelope](ctx, p.api, apicall.CallOptions{URL: "user/oauth"}, accessToken)
	if err != nil {
		var httpErr *apicall.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			return 0, &MissingScopeError{Scopes: []string{ScopeUserShow}}
		}
		return 0, fmt.Errorf("failed to resolve user identity: %w", err)
	}
	return out.Data.ID, nil
}
