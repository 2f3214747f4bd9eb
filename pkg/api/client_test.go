package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamware/donationalerts/pkg/api"
	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
	"github.com/streamware/donationalerts/pkg/ratelimit"
)

// testBuckets keeps rate limiting out of the way unless a test wants it.
func testBuckets() []ratelimit.Bucket {
	return []ratelimit.Bucket{{Size: 1000, Window: time.Second}}
}

func transportFor(srv *httptest.Server) *apicall.Client {
	c := apicall.New()
	c.APIBaseURL = srv.URL + "/api/v1"
	c.AuthBaseURL = srv.URL + "/oauth"
	return c
}

func TestNewClientRequiresProvider(t *testing.T) {
	_, err := api.NewClient(api.Config{})
	require.ErrorIs(t, err, api.ErrNoAuthProvider)
}

func TestUserProfileCall(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/user/oauth", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":42,"name":"streamer","code":"streamer42","socket_connection_token":"sock"}}`)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeUserShow)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	user, err := client.Users().Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), user.ID)
	require.Equal(t, "streamer", user.Name)

	sock, err := client.Users().SocketConnectionToken(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "sock", sock)
}

func TestScopeValidationBeforeDispatch(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok") // no scopes
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Users().Get(ctx, 42)
	var missingErr *auth.MissingScopeError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, []string{auth.ScopeUserShow}, missingErr.Scopes)

	// The call never reached the network.
	require.Equal(t, int64(0), hits.Load())
}

func TestRetryOnceAfter401(t *testing.T) {
	ctx := context.Background()

	var apiCalls, tokenCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token_type":"Bearer","access_token":"fresh","refresh_token":"rot","expires_in":3600}`)
	})
	mux.HandleFunc("/api/v1/user/oauth", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":7,"name":"streamer"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	provider := auth.NewRefreshingProvider(auth.RefreshingConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		API:          transportFor(srv),
	})
	// The stored token looks valid locally but the API rejects it.
	_, err := provider.AddUser(7, auth.AccessToken{
		AccessToken:         "stale",
		RefreshToken:        "R",
		ExpiresIn:           auth.Seconds(3600),
		ObtainmentTimestamp: time.Now(),
		Scopes:              []string{auth.ScopeUserShow},
	})
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	user, err := client.Users().Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)

	require.Equal(t, int64(2), apiCalls.Load())
	require.Equal(t, int64(1), tokenCalls.Load())
}

func TestSecond401Propagates(t *testing.T) {
	ctx := context.Background()

	var apiCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token_type":"Bearer","access_token":"fresh","refresh_token":"rot","expires_in":3600}`)
	})
	mux.HandleFunc("/api/v1/user/oauth", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	provider := auth.NewRefreshingProvider(auth.RefreshingConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		API:          transportFor(srv),
	})
	_, err := provider.AddUser(7, auth.AccessToken{
		AccessToken:         "stale",
		RefreshToken:        "R",
		ExpiresIn:           auth.Seconds(3600),
		ObtainmentTimestamp: time.Now(),
	})
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Users().Get(ctx, 7)
	var httpErr *apicall.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)

	// One original attempt and exactly one retry.
	require.Equal(t, int64(2), apiCalls.Load())
}

func TestNoRetryForStaticProvider(t *testing.T) {
	ctx := context.Background()

	var apiCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeUserShow)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Users().Get(ctx, 42)
	var httpErr *apicall.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, int64(1), apiCalls.Load())
}

func TestUnauthenticatedCall(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"status":"ok"}}`)
	}))
	defer srv.Close()

	client, err := api.NewClient(api.Config{
		AuthProvider: auth.NewStaticProvider("cid"),
		Transport:    transportFor(srv),
		RateLimit:    ratelimit.Config{Buckets: testBuckets()},
	})
	require.NoError(t, err)
	defer client.Close()

	type status struct {
		Status string `json:"status"`
	}
	resp, err := api.Call[api.DataResponse[status]](ctx, client, nil, apicall.CallOptions{
		URL:    "status",
		NoAuth: true,
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Data.Status)
}

func TestDropBehaviorYieldsZeroValue(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":42}}`)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok", auth.ScopeUserShow)
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit: ratelimit.Config{
			Buckets: []ratelimit.Bucket{{Size: 1, Window: time.Minute}},
		},
	})
	require.NoError(t, err)
	defer client.Close()

	first, err := api.CallWithBehavior[api.DataResponse[api.User]](ctx, client, 42, apicall.CallOptions{
		URL:   "user/oauth",
		Scope: auth.ScopeUserShow,
	}, ratelimit.BehaviorDrop)
	require.NoError(t, err)
	require.Equal(t, int64(42), first.Data.ID)

	second, err := api.CallWithBehavior[api.DataResponse[api.User]](ctx, client, 42, apicall.CallOptions{
		URL:   "user/oauth",
		Scope: auth.ScopeUserShow,
	}, ratelimit.BehaviorDrop)
	require.NoError(t, err)
	require.Zero(t, second.Data.ID)
	require.Equal(t, int64(1), hits.Load())
}

func TestFailBehaviorSurfacesLimitError(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":42}}`)
	}))
	defer srv.Close()

	provider := auth.NewStaticProvider("cid")
	_, err := provider.AddUser(42, "tok")
	require.NoError(t, err)

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		Transport:    transportFor(srv),
		RateLimit: ratelimit.Config{
			Buckets: []ratelimit.Bucket{{Size: 1, Window: time.Minute}},
		},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = api.CallWithBehavior[json.RawMessage](ctx, client, 42, apicall.CallOptions{URL: "user/oauth"}, ratelimit.BehaviorFail)
	require.NoError(t, err)

	_, err = api.CallWithBehavior[json.RawMessage](ctx, client, 42, apicall.CallOptions{URL: "user/oauth"}, ratelimit.BehaviorFail)
	require.ErrorIs(t, err, ratelimit.ErrLimitReached)
}
