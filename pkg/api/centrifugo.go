package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
	"github.com/streamware/donationalerts/pkg/userx"
)

// Private Centrifugo channels a user can subscribe to.
const (
	ChannelDonations = "$alerts:donation"
	ChannelGoals     = "$goals:goal"
	ChannelPolls     = "$polls:poll"
)

// channelScopes maps each private channel to the scope required to
// subscribe to it.
var channelScopes = map[string]string{
	ChannelDonations: auth.ScopeDonationSubscribe,
	ChannelGoals:     auth.ScopeGoalSubscribe,
	ChannelPolls:     auth.ScopePollSubscribe,
}

// CentrifugoAPI authorizes subscriptions to private realtime channels.
type CentrifugoAPI struct {
	client *Client
}

// SubscribeUser authorizes a Centrifugo client to join the given private
// channels on behalf of the user. The clientID is the UUID Centrifugo
// assigned to the connection. Channel names are the bare channel constants;
// the user ID suffix is appended here.
func (a *CentrifugoAPI) SubscribeUser(ctx context.Context, user any, clientID string, channels ...string) ([]CentrifugoChannel, error) {
	if err := uuid.Validate(clientID); err != nil {
		return nil, fmt.Errorf("invalid centrifugo client ID %q: %w", clientID, err)
	}

	userID, err := userx.ExtractID(user)
	if err != nil {
		return nil, err
	}

	var scopes []string
	qualified := make([]string, len(channels))
	for i, channel := range channels {
		if scope, ok := channelScopes[channel]; ok {
			scopes = append(scopes, scope)
		}
		qualified[i] = fmt.Sprintf("%s_%d", channel, userID)
	}

	resp, err := doCall[DataResponse[[]CentrifugoChannel]](ctx, a.client, user, apicall.CallOptions{
		URL:    "centrifuge/subscribe",
		Method: http.MethodPost,
		JSONBody: map[string]any{
			"client":   clientID,
			"channels": qualified,
		},
	}, scopes, "")
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SubscribeDonationAlerts authorizes the client for the user's donation
// channel.
func (a *CentrifugoAPI) SubscribeDonationAlerts(ctx context.Context, user any, clientID string) ([]CentrifugoChannel, error) {
	return a.SubscribeUser(ctx, user, clientID, ChannelDonations)
}

// SubscribeGoalUpdates authorizes the client for the user's goal channel.
func (a *CentrifugoAPI) SubscribeGoalUpdates(ctx context.Context, user any, clientID string) ([]CentrifugoChannel, error) {
	return a.SubscribeUser(ctx, user, clientID, ChannelGoals)
}

// SubscribePollUpdates authorizes the client for the user's poll channel.
func (a *CentrifugoAPI) SubscribePollUpdates(ctx context.Context, user any, clientID string) ([]CentrifugoChannel, error) {
	return a.SubscribeUser(ctx, user, clientID, ChannelPolls)
}
