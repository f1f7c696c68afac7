package endpoint

import "errors"

// Configuration errors returned by the constructors.
var (
	ErrMissingTokenFactory    = errors.New("endpoint: token factory is required")
	ErrMissingTokenStorage    = errors.New("endpoint: access token storage is required")
	ErrMissingClientStorage   = errors.New("endpoint: client storage is required")
	ErrMissingPasswordManager = errors.New("endpoint: password grant requires a password manager")
	ErrMissingCodeStore       = errors.New("endpoint: authorization_code grant requires a code store")
	ErrMissingOnAuthenticate  = errors.New("endpoint: OnAuthenticate hook is required")
	ErrUnknownGrantType       = errors.New("endpoint: grant type is not built in; register it in CustomGrants")
)
