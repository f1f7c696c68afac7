package token

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Kind identifies the role of a token.
type Kind string

const (
	KindAccess  Kind = "access_token"
	KindRefresh Kind = "refresh_token"
	KindCode    Kind = "authorization_code"
)

// Token is an issued access token, refresh token or authorization code.
type Token struct {
	Value          string         `json:"value"`
	Kind           Kind           `json:"kind"`
	ClientID       string         `json:"client_id"`
	Scope          Scope          `json:"scope"`
	Subject        string         `json:"sub,omitempty"`
	IssuedAt       time.Time      `json:"iat"`
	ExpiresAt      time.Time      `json:"exp"`
	RefreshToken   string         `json:"refresh_token,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

// Expired reports whether the token has expired at now. Tokens with a zero
// ExpiresAt never expire.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ExpiresIn returns the remaining lifetime, or 0 for tokens without expiry.
func (t *Token) ExpiresIn(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// Clone returns a copy that shares no slices or maps with t.
func (t *Token) Clone() *Token {
	out := *t
	out.Scope = slices.Clone(t.Scope)
	out.AdditionalData = maps.Clone(t.AdditionalData)
	return &out
}

// ValidValue reports whether v is a b64token (RFC 6750 §2.1):
// 1*( ALPHA / DIGIT / "-" / "." / "_" / "~" / "+" / "/" ) *"="
func ValidValue(v string) bool {
	body := strings.TrimRight(v, "=")
	if body == "" {
		return false
	}
	for i := 0; i < len(body); i++ {
		if !isB64TokenChar(body[i]) {
			return false
		}
	}
	return true
}

func isB64TokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~' || c == '+' || c == '/'
}
