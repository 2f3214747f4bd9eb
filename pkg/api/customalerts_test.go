package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamware/donationalerts/pkg/api"
	"github.com/streamware/donationalerts/pkg/auth"
	"github.com/streamware/donationalerts/pkg/ratelimit"
)

func TestCustomAlertSend(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/custom_alert", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "ext-1", r.FormValue("external_id"))
		require.Equal(t, "Big news", r.FormValue("header"))
		require.Equal(t, "hello chat", r.FormValue("message"))
		// shouldShow=false maps to the already-shown wire flag.
		require.Equal(t, "1", r.FormValue("is_shown"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":99,"external_id":"ext-1","header":"Big news","message":"hello chat","is_shown":1,"created_at":"2025-03-01 12:00:00"}}`)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeCustomAlertStore)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	hide := false
	alert, err := client.CustomAlerts().Send(ctx, 42, api.CustomAlertRequest{
		ExternalID: "ext-1",
		Header:     "Big news",
		Message:    "hello chat",
		ShouldShow: &hide,
	})
	require.NoError(t, err)
	require.Equal(t, int64(99), alert.ID)
	require.Equal(t, "ext-1", alert.ExternalID)
}

func TestCustomAlertRequiresScope(t *testing.T) {
	ctx := context.Background()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeUserShow)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.CustomAlerts().Send(ctx, 42, api.CustomAlertRequest{Message: "hi"})
	var missingErr *auth.MissingScopeError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, []string{auth.ScopeCustomAlertStore}, missingErr.Scopes)
}
