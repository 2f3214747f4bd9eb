package apicall

import "net/url"

// CallType selects which Donation Alerts service a call targets.
type CallType string

const (
	// TypeAPI targets https://www.donationalerts.com/api/v1.
	TypeAPI CallType = "api"

	// TypeAuth targets https://www.donationalerts.com/oauth.
	TypeAuth CallType = "auth"

	// TypeCustom leaves the URL untouched; it must be fully formed.
	TypeCustom CallType = "custom"
)

// CallOptions describes a single call to the Donation Alerts API.
type CallOptions struct {
	// URL is the endpoint portion for TypeAPI/TypeAuth calls (e.g.
	// "alerts/donations"), or a complete URL for TypeCustom calls.
	URL string

	// Type of the call. Defaults to TypeAPI.
	Type CallType

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Query parameters appended to the URL.
	Query url.Values

	// JSONBody is serialized as an application/json request body.
	JSONBody any

	// FormBody is sent as an application/x-www-form-urlencoded request
	// body. JSONBody takes precedence when both are set.
	FormBody url.Values

	// Scope is the OAuth scope required for this call. Validated by the
	// auth provider, not by the transport.
	Scope string

	// NoAuth disables the Authorization header for this call. The zero
	// value means the call is authenticated.
	NoAuth bool
}

func (o CallOptions) callType() CallType {
	if o.Type == "" {
		return TypeAPI
	}
	return o.Type
}

func (o CallOptions) method() string {
	if o.Method == "" {
		return "GET"
	}
	return o.Method
}
