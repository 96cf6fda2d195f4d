// Package redirect decides whether a callback URL satisfies a pending
// request's expected redirect URL, and extracts its query parameters.
package redirect

import (
	"net/url"
	"strings"
)

// Matches reports whether candidate satisfies the expected redirect URL.
// Scheme and host must match exactly (case-insensitively, per RFC 3986); the
// path must match only when the expected URL constrains it. Query and
// fragment components never affect the result.
//
// Pure function: returns false on any structural mismatch rather than
// erroring, so hosts can probe multiple URL schemes against one session.
func Matches(candidate, expected *url.URL) bool {
	if candidate == nil || expected == nil {
		return false
	}
	if !strings.EqualFold(candidate.Scheme, expected.Scheme) {
		return false
	}
	if !strings.EqualFold(candidate.Host, expected.Host) {
		return false
	}
	if expected.Path != "" && candidate.Path != expected.Path {
		return false
	}
	return true
}

// QueryParams parses the query component of u into a name-to-value map.
// The last occurrence wins on duplicate keys.
func QueryParams(u *url.URL) map[string]string {
	params := make(map[string]string)
	if u == nil {
		return params
	}
	for name, values := range u.Query() {
		if len(values) > 0 {
			params[name] = values[len(values)-1]
		}
	}
	return params
}
