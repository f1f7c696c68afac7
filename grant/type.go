package grant

import (
	"net/url"
	"strings"
)

// Type is a grant type identifier as sent in the grant_type parameter.
type Type string

// Built-in grant types (RFC 6749).
const (
	AuthorizationCode Type = "authorization_code"
	Implicit          Type = "implicit"
	Password          Type = "password"
	ClientCredentials Type = "client_credentials"
	RefreshToken      Type = "refresh_token"
)

// Builtin lists the built-in grant types in RFC order.
var Builtin = []Type{AuthorizationCode, Implicit, Password, ClientCredentials, RefreshToken}

// IsBuiltin reports whether t is one of the RFC 6749 grant types.
func (t Type) IsBuiltin() bool {
	for _, b := range Builtin {
		if t == b {
			return true
		}
	}
	return false
}

// Valid reports whether t matches the grant-type grammar (RFC 6749 A.10):
// either an absolute URI or 1*( "-" / "." / "_" / DIGIT / ALPHA ).
func (t Type) Valid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	if strings.Contains(s, ":") {
		u, err := url.Parse(s)
		return err == nil && u.IsAbs() && strings.IndexFunc(s, isControlOrSpace) < 0
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '.' || c == '_':
		default:
			return false
		}
	}
	return true
}

func isControlOrSpace(r rune) bool {
	return r <= 0x20 || r >= 0x7f
}

// String returns the identifier.
func (t Type) String() string {
	return string(t)
}

// Parse parses a comma or space separated list of grant types.
func Parse(s string) ([]Type, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	types := make([]Type, 0, len(fields))
	for _, f := range fields {
		t := Type(f)
		if !t.Valid() {
			return nil, ErrInvalidType
		}
		types = append(types, t)
	}
	return types, nil
}
