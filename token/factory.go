package token

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Request describes a token to generate.
type Request struct {
	// Kind is the role of the token.
	Kind Kind

	// Lifetime is how long the token is valid. Zero means it never expires.
	Lifetime time.Duration

	ClientID       string
	Scope          Scope
	Subject        string
	GrantType      string
	AdditionalData map[string]any

	// Now is the issue time.
	// Default: time.Now()
	Now time.Time
}

// Expiry returns the expiry time for the request, or the zero time when the
// token never expires.
func (r *Request) Expiry() time.Time {
	if r.Lifetime <= 0 {
		return time.Time{}
	}
	return r.now().Add(r.Lifetime)
}

func (r *Request) now() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

// Factory generates token values.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Values must be unguessable and satisfy ValidValue.
// - The token scope must be a subset of the requested scope.
// - When req.Lifetime is positive, ExpiresAt must be set and be after the
// issue time.
type Factory interface {
	GenerateToken(ctx context.Context, req *Request) (*Token, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, req *Request) (*Token, error)

// GenerateToken calls f.
func (f FactoryFunc) GenerateToken(ctx context.Context, req *Request) (*Token, error) {
	return f(ctx, req)
}

// Finalize fills the fields a factory left empty and checks that tok is a
// structurally valid answer to req. The returned error wraps one of the
// validation sentinels.
func Finalize(tok *Token, req *Request) error {
	if tok == nil {
		return ErrNilToken
	}
	now := req.now()

	if tok.Kind == "" {
		tok.Kind = req.Kind
	}
	if tok.ClientID == "" {
		tok.ClientID = req.ClientID
	}
	if tok.Subject == "" {
		tok.Subject = req.Subject
	}
	if tok.IssuedAt.IsZero() {
		tok.IssuedAt = now
	}
	if tok.Scope == nil {
		tok.Scope = slices.Clone(req.Scope)
	}
	if tok.AdditionalData == nil && len(req.AdditionalData) > 0 {
		tok.AdditionalData = maps.Clone(req.AdditionalData)
	}

	if !ValidValue(tok.Value) {
		return fmt.Errorf("%w: %q", ErrInvalidValue, tok.Value)
	}
	if tok.ExpiresAt.IsZero() {
		if req.Lifetime > 0 {
			return ErrMissingExpiry
		}
	} else if !tok.ExpiresAt.After(now) {
		return fmt.Errorf("%w: expires at %s", ErrExpired, tok.ExpiresAt.Format(time.RFC3339))
	}
	if !tok.Scope.SubsetOf(req.Scope) {
		return fmt.Errorf("%w: %q not within %q", ErrScopeExceeded, tok.Scope.String(), req.Scope.String())
	}
	if tok.ClientID != req.ClientID {
		return fmt.Errorf("%w: %q", ErrClientMismatch, tok.ClientID)
	}
	return nil
}
