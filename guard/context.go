package guard

import (
	"context"

	"github.com/jonwraymond/tokenops/token"
)

type contextKey int

const accessKey contextKey = iota

// WithAccess returns a new context carrying the authorized access token.
func WithAccess(ctx context.Context, tok *token.Token) context.Context {
	return context.WithValue(ctx, accessKey, tok)
}

// FromContext returns the access token stored by Middleware, or nil.
func FromContext(ctx context.Context) *token.Token {
	tok, _ := ctx.Value(accessKey).(*token.Token)
	return tok
}

// ClientIDFromContext returns the client the access token was issued to.
// Returns empty string if no token is present.
func ClientIDFromContext(ctx context.Context) string {
	tok := FromContext(ctx)
	if tok == nil {
		return ""
	}
	return tok.ClientID
}

// SubjectFromContext returns the resource owner of the access token.
// Returns empty string if no token is present or it has no subject.
func SubjectFromContext(ctx context.Context) string {
	tok := FromContext(ctx)
	if tok == nil {
		return ""
	}
	return tok.Subject
}
