package token

import "errors"

// Storage errors.
var (
	// ErrNotFound indicates an unknown, expired or invalidated token.
	ErrNotFound = errors.New("token: not found")

	// ErrNoSingleton indicates the storage singleton was requested before
	// any storage was registered. It is a programming error, not an OAuth2
	// error.
	ErrNoSingleton = errors.New("token: no storage singleton registered")

	// ErrNilToken indicates a nil token or storage argument.
	ErrNilToken = errors.New("token: nil token")
)

// Validation errors returned by Finalize and ParseScope.
var (
	ErrInvalidValue   = errors.New("token: invalid token value")
	ErrMissingExpiry  = errors.New("token: missing expiry")
	ErrExpired        = errors.New("token: non-positive lifetime")
	ErrScopeExceeded  = errors.New("token: scope exceeds requested scope")
	ErrClientMismatch = errors.New("token: client mismatch")
	ErrMalformedScope = errors.New("token: malformed scope")
)
