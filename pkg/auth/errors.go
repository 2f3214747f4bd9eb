package auth

import (
	"fmt"
	"strings"
)

// UnregisteredUserError reports an operation on a user that was never added
// to the provider, or was already removed.
type UnregisteredUserError struct {
	UserID int64
}

func (e *UnregisteredUserError) Error() string {
	return fmt.Sprintf("user %d is not registered with this auth provider", e.UserID)
}

// InvalidTokenError reports a missing or empty token where one is required.
// UserID is zero when the owning user is not yet known.
type InvalidTokenError struct {
	UserID int64
}

func (e *InvalidTokenError) Error() string {
	if e.UserID == 0 {
		return "the supplied token is invalid"
	}
	return fmt.Sprintf("the token for user %d is invalid", e.UserID)
}

// MissingScopeError reports that a token lacks one or more scopes required
// for an operation. Scopes lists exactly the missing ones, in request order.
type MissingScopeError struct {
	UserID int64
	Scopes []string
}

func (e *MissingScopeError) Error() string {
	return fmt.Sprintf("user %d lacks the required scope(s): %s", e.UserID, strings.Join(e.Scopes, ", "))
}
