package token

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/tokenops/oautherr"
)

// Scope is a set of scope tokens in request order.
type Scope []string

// ParseScope parses a space delimited scope parameter (RFC 6749 §3.3).
// Duplicates are dropped. An empty string yields an empty scope.
func ParseScope(s string) (Scope, error) {
	if s == "" {
		return Scope{}, nil
	}
	parts := strings.Split(s, " ")
	out := make(Scope, 0, len(parts))
	for _, p := range parts {
		if !oautherr.ValidScopeToken(p) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedScope, s)
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// String returns the space delimited form.
func (s Scope) String() string {
	return strings.Join(s, " ")
}

// Has reports whether scope is granted.
func (s Scope) Has(scope string) bool {
	return slices.Contains(s, scope)
}

// Contains reports whether every required scope is granted. No required
// scopes is always satisfied.
func (s Scope) Contains(required ...string) bool {
	for _, r := range required {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every scope in s is also in other.
func (s Scope) SubsetOf(other Scope) bool {
	return other.Contains(s...)
}
