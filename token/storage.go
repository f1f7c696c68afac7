package token

import "context"

// Storage persists issued tokens.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; Store and
// Invalidate may run concurrently for distinct tokens.
// - Context: must honor cancellation/deadlines.
// - Errors: Lookup returns ErrNotFound for unknown, expired or invalidated
// tokens. Backend outages should be reported as server_error OAuth2 errors.
// Storing a token that has already expired is a no-op. Invalidate is
// idempotent.
type Storage interface {
	// Store persists tok, replacing any token with the same value.
	Store(ctx context.Context, tok *Token) error

	// Lookup returns the stored token.
	Lookup(ctx context.Context, value string) (*Token, error)

	// Contains reports whether value is a valid stored token.
	Contains(ctx context.Context, value string) (bool, error)

	// HasAccess reports whether value is valid and grants every scope in
	// scopes. It accepts one scope or several.
	HasAccess(ctx context.Context, value string, scopes ...string) (bool, error)

	// Invalidate makes value unusable.
	Invalidate(ctx context.Context, value string) error
}
