// Package apicall implements the raw HTTP transport for the Donation Alerts
// API: request construction, body encoding, and response decoding.
//
// Higher layers (auth providers, the API client facade) build on the Client
// type here; they decide which token to attach and how calls are rate
// limited. The transport itself is stateless apart from its configuration.
package apicall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL  = "https://www.donationalerts.com/api/v1"
	defaultAuthBaseURL = "https://www.donationalerts.com/oauth"
)

// Client performs raw HTTP calls against the Donation Alerts API.
type Client struct {
	// HTTPClient is the underlying HTTP client.
	HTTPClient *http.Client

	// APIBaseURL overrides the base URL for TypeAPI calls. Primarily
	// useful for tests.
	APIBaseURL string

	// AuthBaseURL overrides the base URL for TypeAuth calls.
	AuthBaseURL string
}

// New creates a transport client with default endpoints and a 10 second
// request timeout.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// URL builds the full request URL for the given options, including query
// parameters.
func (c *Client) URL(opts CallOptions) string {
	var base string
	switch opts.callType() {
	case TypeAPI:
		base = c.APIBaseURL
		if base == "" {
			base = defaultAPIBaseURL
		}
	case TypeAuth:
		base = c.AuthBaseURL
		if base == "" {
			base = defaultAuthBaseURL
		}
	default:
		// TypeCustom: the URL is already complete.
		return appendQuery(opts.URL, opts)
	}

	full := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(opts.URL, "/")
	return appendQuery(full, opts)
}

func appendQuery(u string, opts CallOptions) string {
	if len(opts.Query) == 0 {
		return u
	}
	return u + "?" + opts.Query.Encode()
}

// Do performs the HTTP call described by opts and returns the raw response.
// The access token, when non-empty, is attached as a bearer credential.
func (c *Client) Do(ctx context.Context, opts CallOptions, accessToken string) (*http.Response, error) {
	var body io.Reader
	contentType := ""

	switch {
	case opts.JSONBody != nil:
		encoded, err := json.Marshal(opts.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	case len(opts.FormBody) > 0:
		body = strings.NewReader(opts.FormBody.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, opts.method(), c.URL(opts), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// HandleResponseError converts a non-2xx response into an *HTTPError. It
// consumes and closes the response body. Successful responses are left
// untouched.
func HandleResponseError(resp *http.Response, c *Client, opts CallOptions) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	isJSON := strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")

	body := string(raw)
	if isJSON {
		// Re-indent JSON bodies for readable diagnostics.
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			body = buf.String()
		}
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		URL:        c.URL(opts),
		Method:     opts.method(),
		Body:       body,
		IsJSON:     isJSON,
	}
}

// Decode reads a successful response body into T and closes it. A 204
// response or an empty body yields the zero value of T.
func Decode[T any](resp *http.Response) (T, error) {
	var out T
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return out, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// Call performs the HTTP call described by opts, translates non-2xx
// responses into *HTTPError, and decodes the body into T.
func Call[T any](ctx context.Context, c *Client, opts CallOptions, accessToken string) (T, error) {
	var zero T

	resp, err := c.Do(ctx, opts, accessToken)
	if err != nil {
		return zero, err
	}
	if err := HandleResponseError(resp, c, opts); err != nil {
		return zero, err
	}
	return Decode[T](resp)
}
