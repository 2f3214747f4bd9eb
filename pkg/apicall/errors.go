package apicall

import (
	"fmt"
	"strings"
)

// maxBodyInMessage bounds how much of a non-JSON response body ends up in an
// error message. The full body stays available on the error value.
const maxBodyInMessage = 150

// HTTPError reports a non-2xx response from the Donation Alerts API.
type HTTPError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Status is the HTTP status text.
	Status string

	// URL is the full request URL including query parameters.
	URL string

	// Method is the HTTP method of the request.
	Method string

	// Body is the complete response body.
	Body string

	// IsJSON reports whether the response declared a JSON content type.
	IsJSON bool
}

func (e *HTTPError) Error() string {
	body := e.Body
	if !e.IsJSON && len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage-3] + "..."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "encountered HTTP status code %d: %s", e.StatusCode, e.Status)
	fmt.Fprintf(&sb, "\n\nURL: %s\nMethod: %s\nBody:\n%s", e.URL, e.Method, body)
	return sb.String()
}
