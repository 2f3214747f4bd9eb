package auth

import (
	"context"
	"sync"
	"time"

	"github.com/streamware/donationalerts/pkg/userx"
)

// StaticProvider serves fixed credentials supplied by the host application.
// Stored tokens never expire and are never refreshed; the provider performs
// no network I/O.
type StaticProvider struct {
	clientID string
	scopes   []string

	mu       sync.RWMutex
	registry map[int64]AccessToken
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider for the given OAuth application. The
// optional scopes form the minimum set every registered token must carry.
func NewStaticProvider(clientID string, scopes ...string) *StaticProvider {
	return &StaticProvider{
		clientID: clientID,
		scopes:   cloneScopes(scopes),
		registry: make(map[int64]AccessToken),
	}
}

// ClientID returns the OAuth application identity.
func (p *StaticProvider) ClientID() string { return p.clientID }

// AddUser registers a fixed access token for the user. The token string must
// be non-empty and the supplied scopes must cover the provider's configured
// minimum.
func (p *StaticProvider) AddUser(user any, accessToken string, scopes ...string) (AccessTokenWithUserID, error) {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return AccessTokenWithUserID{}, err
	}
	if accessToken == "" {
		return AccessTokenWithUserID{}, &InvalidTokenError{UserID: userID}
	}
	if err := CompareScopes(scopes, p.scopes, userID); err != nil {
		return AccessTokenWithUserID{}, err
	}

	token := AccessToken{
		AccessToken:         accessToken,
		ObtainmentTimestamp: time.Now(),
		Scopes:              cloneScopes(scopes),
	}

	p.mu.Lock()
	p.registry[userID] = token
	p.mu.Unlock()

	return token.withUserID(userID), nil
}

// RemoveUser drops the user's credentials. Removing an unknown user is a
// no-op.
func (p *StaticProvider) RemoveUser(user any) error {
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
func (p *StaticProvider) HasUser(user any) bool {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return false
	}
	p.mu.RLock()
	_, ok := p.registry[userID]
	p.mu.RUnlock()
	return ok
}

// GetScopesForUser returns the scopes attached to the user's token.
func (p *StaticProvider) GetScopesForUser(user any) ([]string, error) {
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

// GetAccessTokenForUser returns the stored token after revalidating the
// requested scopes.
func (p *StaticProvider) GetAccessTokenForUser(_ context.Context, user any, scopes ...string) (AccessTokenWithUserID, error) {
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
	if err := CompareScopes(token.Scopes, scopes, userID); err != nil {
		return AccessTokenWithUserID{}, err
	}
	return token.withUserID(userID), nil
}
