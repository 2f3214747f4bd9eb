package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamware/donationalerts/pkg/api"
	"github.com/streamware/donationalerts/pkg/auth"
	"github.com/streamware/donationalerts/pkg/ratelimit"
)

const testClientID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

func TestCentrifugoSubscribe(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/centrifuge/subscribe", r.URL.Path)

		var body struct {
			Client   string   `json:"client"`
			Channels []string `json:"channels"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, testClientID, body.Client)
		require.Equal(t, []string{"$alerts:donation_42"}, body.Channels)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"channel":"$alerts:donation_42","token":"chtok"}]}`)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeDonationSubscribe)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	channels, err := client.Centrifugo().SubscribeDonationAlerts(ctx, 42, testClientID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Equal(t, "$alerts:donation_42", channels[0].Channel)
	require.Equal(t, "chtok", channels[0].Token)
}

func TestCentrifugoRejectsInvalidClientID(t *testing.T) {
	ctx := context.Background()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok")
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Centrifugo().SubscribeUser(ctx, 42, "not-a-uuid", api.ChannelDonations)
	require.ErrorContains(t, err, "invalid centrifugo client ID")
}

func TestCentrifugoRequiresChannelScopes(t *testing.T) {
	ctx := context.Background()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeDonationSubscribe)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Centrifugo().SubscribeUser(ctx, 42, testClientID, api.ChannelDonations, api.ChannelGoals)
	var missingErr *auth.MissingScopeError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, []string{auth.ScopeGoalSubscribe}, missingErr.Scopes)
}
