// Package guard protects resources with bearer tokens issued by the token
// endpoint.
//
// A Guard extracts the bearer token from a request (RFC 6750 §2), looks it
// up in token storage and checks that it grants the required scope. Failures
// are *oautherr.Error values whose rendering carries the WWW-Authenticate
// challenge:
//
//   - no token: 401 invalid_request
//   - malformed, unknown or expired token: 401 invalid_token
//   - insufficient scope: 403 access_denied with the required scope
//   - several tokens in one request: 400 invalid_request
//
// Middleware wraps an http.Handler and exposes the authorized token through
// FromContext.
//
// When Config.Storage is nil the guard resolves the process-wide storage
// singleton on every call, so a Guard can be created before any
// TokenResource. Calling it before a storage is registered returns
// token.ErrNoSingleton.
package guard
