package api

import (
	"context"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
)

// UsersAPI accesses the authorized user's profile.
type UsersAPI struct {
	client *Client
}

// Get fetches the user's profile.
func (a *UsersAPI) Get(ctx context.Context, user any) (User, error) {
	resp, err := Call[DataResponse[User]](ctx, a.client, user, apicall.CallOptions{
		URL:   "user/oauth",
		Scope: auth.ScopeUserShow,
	})
	if err != nil {
		return User{}, err
	}
	return resp.Data, nil
}

// SocketConnectionToken fetches the token used to authenticate the user's
// Centrifugo connection.
func (a *UsersAPI) SocketConnectionToken(ctx context.Context, user any) (string, error) {
	profile, err := a.Get(ctx, user)
	if err != nil {
		return "", err
	}
	return profile.SocketConnectionToken, nil
}
