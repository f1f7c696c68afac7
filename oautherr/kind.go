package oautherr

import "net/http"

// Kind identifies one error variant of the OAuth 2.0 taxonomy.
//
// Kind implements error so it can be used as an errors.Is target:
//
//	if errors.Is(err, oautherr.InvalidGrant) { ... }
type Kind int

const (
	InvalidRequest Kind = iota + 1
	InvalidClient
	InvalidGrant
	UnauthorizedClient
	UnsupportedGrantType
	InvalidScope
	AccessDenied
	UnsupportedResponseType
	TemporarilyUnavailable
	ServerError

	// MissingToken is reported by the guard when a protected resource is
	// requested without any bearer token. It renders as invalid_request.
	MissingToken
	// InvalidToken is reported by the guard for malformed, unknown, expired
	// or revoked bearer tokens.
	InvalidToken
	// InsufficientScope is reported by the guard when a valid token lacks a
	// required scope. It renders as access_denied and always carries the
	// challenge header.
	InsufficientScope
)

type kindInfo struct {
	name        string
	status      int
	description string
}

var kinds = map[Kind]kindInfo{
	InvalidRequest:          {"invalid_request", http.StatusBadRequest, "The request is missing a required parameter or is otherwise malformed."},
	InvalidClient:           {"invalid_client", http.StatusUnauthorized, "Client authentication failed."},
	InvalidGrant:            {"invalid_grant", http.StatusBadRequest, "The provided authorization grant is invalid, expired or revoked."},
	UnauthorizedClient:      {"unauthorized_client", http.StatusBadRequest, "The client is not authorized to use this grant type."},
	UnsupportedGrantType:    {"unsupported_grant_type", http.StatusBadRequest, "The authorization grant type is not supported."},
	InvalidScope:            {"invalid_scope", http.StatusBadRequest, "The requested scope is invalid, unknown or malformed."},
	AccessDenied:            {"access_denied", http.StatusForbidden, "The resource owner or authorization server denied the request."},
	UnsupportedResponseType: {"unsupported_response_type", http.StatusBadRequest, "The response type is not supported."},
	TemporarilyUnavailable:  {"temporarily_unavailable", http.StatusServiceUnavailable, "The server is temporarily unable to handle the request."},
	ServerError:             {"server_error", http.StatusInternalServerError, "The server encountered an unexpected condition."},
	MissingToken:            {"invalid_request", http.StatusUnauthorized, "An access token is required to access this resource."},
	InvalidToken:            {"invalid_token", http.StatusUnauthorized, "The access token is invalid."},
	InsufficientScope:       {"access_denied", http.StatusForbidden, "The access token does not grant the required scope."},
}

// Name returns the wire name of the kind ("invalid_request", ...).
func (k Kind) Name() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return kinds[ServerError].name
}

// Status returns the HTTP status code mandated for the kind.
// Unknown kinds map to 500.
func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Description returns the default human readable description.
func (k Kind) Description() string {
	if info, ok := kinds[k]; ok {
		return info.description
	}
	return kinds[ServerError].description
}

// Valid reports whether k is part of the taxonomy.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// String returns the wire name.
func (k Kind) String() string {
	return k.Name()
}

// Error implements error.
func (k Kind) Error() string {
	return "oauth2: " + k.Name()
}
