// Package auth manages per-user OAuth credentials for the Donation Alerts
// API: token values, scope validation, and the static and refreshing
// provider implementations.
package auth

import "time"

// AccessToken is an immutable OAuth credential. Refreshing produces a new
// value; tokens are never mutated in place.
type AccessToken struct {
	// AccessToken is the bearer credential. Never empty for a registered
	// user.
	AccessToken string

	// RefreshToken is the credential used to obtain a new access token.
	// Empty for tokens that cannot be refreshed.
	RefreshToken string

	// ExpiresIn is the token lifetime in seconds from the obtainment
	// timestamp. Nil means the token never expires.
	ExpiresIn *int64

	// ObtainmentTimestamp records when the token was issued.
	ObtainmentTimestamp time.Time

	// Scopes granted to this token. The token endpoint does not report
	// them, so they are carried over from registration.
	Scopes []string
}

// AccessTokenWithUserID is a token annotated with its owning user, so
// callers working with multiple users can correlate results.
type AccessTokenWithUserID struct {
	AccessToken

	UserID int64
}

// Seconds is a convenience for building the nullable ExpiresIn field.
func Seconds(n int64) *int64 { return &n }

// Expiry returns the instant the token expires. The second return is false
// for tokens that never expire.
func (t AccessToken) Expiry() (time.Time, bool) {
	if t.ExpiresIn == nil {
		return time.Time{}, false
	}
	return t.ObtainmentTimestamp.Add(time.Duration(*t.ExpiresIn) * time.Second), true
}

// IsExpired reports whether the token has passed its expiry. Tokens without
// an expiry are never expired.
func (t AccessToken) IsExpired() bool {
	expiry, ok := t.Expiry()
	if !ok {
		return false
	}
	return !time.Now().Before(expiry)
}

// withUserID annotates the token with its owning user.
func (t AccessToken) withUserID(userID int64) AccessTokenWithUserID {
	return AccessTokenWithUserID{AccessToken: t, UserID: userID}
}

// cloneScopes returns an independent copy of a scope list so stored tokens
// do not alias caller slices.
func cloneScopes(scopes []string) []string {
	if scopes == nil {
		return nil
	}
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}
