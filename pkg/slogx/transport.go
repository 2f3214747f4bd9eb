package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/streamware/donationalerts/pkg/idx"
)

// Transport is an http.RoundTripper that logs outbound requests with a
// correlation ID. Wrap an http.Client's transport with it to trace SDK
// traffic.
type Transport struct {
	// Base performs the actual round trip. Defaults to
	// http.DefaultTransport.
	Base http.RoundTripper

	// Logger receives the request logs. When nil, the logger attached to
	// the request context is used, falling back to slog.Default().
	Logger *slog.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = FromContext(req.Context())
	}

	reqID := idx.New()
	start := time.Now()

	resp, err := base.RoundTrip(req)

	attrs := []any{
		"req_id", reqID.String(),
		"method", req.Method,
		"url", req.URL.Redacted(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.Error("api_request_failed", append(attrs, "error", err)...)
		return nil, err
	}

	logger.Debug("api_request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
