package config

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing environment variables")

	// ErrInvalidScope indicates a malformed server.default_scope.
	ErrInvalidScope = errors.New("config: invalid default scope")

	// ErrInvalidGrantType indicates a malformed entry in server.grant_types.
	ErrInvalidGrantType = errors.New("config: invalid grant type")

	// ErrInvalidLifetime indicates a negative code lifetime.
	ErrInvalidLifetime = errors.New("config: invalid lifetime")
)
