package client

import "errors"

// Sentinel errors for client records and storage.
var (
	ErrNotFound           = errors.New("client: not found")
	ErrDuplicate          = errors.New("client: already registered")
	ErrMissingID          = errors.New("client: missing client id")
	ErrInvalidRedirectURI = errors.New("client: invalid redirect uri")
	ErrMissingSecret      = errors.New("client: confidential client without secret")
	ErrInvalidGrantType   = errors.New("client: invalid grant type")
)
