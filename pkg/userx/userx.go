// Package userx resolves the various ways callers may refer to a
// Donation Alerts user into a canonical numeric user ID.
//
// Most SDK entry points accept a user argument that can be an integer ID, a
// numeric string, or any value implementing Identifiable (such as the user
// model returned by the API). Resolution happens once at the boundary; all
// internal bookkeeping is keyed by the canonical int64 ID.
package userx

import (
	"fmt"
	"strconv"
)

// Identifiable is implemented by values that carry a Donation Alerts user ID,
// e.g. the user profile model returned by the API.
type Identifiable interface {
	UserID() int64
}

// InvalidUserIDError reports a user argument that could not be resolved to a
// numeric user ID.
type InvalidUserIDError struct {
	// Value is the rejected argument.
	Value any
}

func (e *InvalidUserIDError) Error() string {
	return fmt.Sprintf("userx: user ID must be an integer or numeric string, got %T (%v)", e.Value, e.Value)
}

// ExtractID resolves a user argument into a numeric user ID.
//
// Accepted forms: int, int32, int64, uint variants that fit in an int64, a
// base-10 numeric string, or an Identifiable. Anything else fails with
// *InvalidUserIDError.
func ExtractID(user any) (int64, error) {
	switch v := user.(type) {
	case int64:
		return nonNegative(v, user)
	case int:
		return nonNegative(int64(v), user)
	case int32:
		return nonNegative(int64(v), user)
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, &InvalidUserIDError{Value: user}
		}
		return nonNegative(id, user)
	case Identifiable:
		return v.UserID(), nil
	default:
		return 0, &InvalidUserIDError{Value: user}
	}
}

func nonNegative(id int64, user any) (int64, error) {
	if id < 0 {
		return 0, &InvalidUserIDError{Value: user}
	}
	return id, nil
}

// MustExtractID is like ExtractID but panics on invalid input. Useful for
// hard-coded IDs in tests.
func MustExtractID(user any) int64 {
	id, err := ExtractID(user)
	if err != nil {
		panic(err)
	}
	return id
}
