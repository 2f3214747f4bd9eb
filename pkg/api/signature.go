package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// signRequest computes the signature merchandise endpoints require: the
// request parameters are flattened to their leaf values, stringified, sorted,
// concatenated, suffixed with the client secret, and hashed with SHA-256.
func signRequest(params map[string]any, clientSecret string) string {
	values := flattenValues(params)
	sort.Strings(values)

	var joined string
	for _, v := range values {
		joined += v
	}

	sum := sha256.Sum256([]byte(joined + clientSecret))
	return hex.EncodeToString(sum[:])
}

// flattenValues collects the stringified leaf values of a parameter tree,
// skipping nils.
func flattenValues(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		var out []string
		for _, item := range val {
			out = append(out, flattenValues(item)...)
		}
		return out
	case map[string]string:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, item)
		}
		return out
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, flattenValues(item)...)
		}
		return out
	default:
		return []string{stringifyParam(val)}
	}
}

// stringifyParam renders a scalar parameter the way it appears both in the
// signature input and on the wire as a form value.
func stringifyParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
