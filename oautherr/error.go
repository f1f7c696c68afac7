package oautherr

import (
	"errors"
	"strings"
)

// DefaultAuthScheme is the WWW-Authenticate scheme used when none is set.
const DefaultAuthScheme = "Bearer"

// Error is an OAuth 2.0 error response.
//
// Error values are immutable. All string fields are sanitized by New and
// Annotate, so they are always safe to place in headers and bodies.
type Error struct {
	kind        Kind
	name        string
	description string
	errorURI    string
	scope       string
	state       string
	realm       string
	authScheme  string
	addHeader   bool
	cause       error
}

// Option configures an Error under construction.
type Option func(*Error)

// WithName overrides the wire name, for extension errors (RFC 6749 §8.5).
func WithName(name string) Option {
	return func(e *Error) { e.name = name }
}

// WithScope attaches the scope relevant to the error.
func WithScope(scopes ...string) Option {
	return func(e *Error) { e.scope = strings.Join(scopes, " ") }
}

// WithErrorURI attaches a URI identifying a human readable error page.
func WithErrorURI(uri string) Option {
	return func(e *Error) { e.errorURI = uri }
}

// WithState echoes the state parameter the client sent.
func WithState(state string) Option {
	return func(e *Error) { e.state = state }
}

// WithRealm sets the realm of the WWW-Authenticate challenge.
func WithRealm(realm string) Option {
	return func(e *Error) { e.realm = realm }
}

// WithAuthScheme sets the WWW-Authenticate scheme. Default: "Bearer".
func WithAuthScheme(scheme string) Option {
	return func(e *Error) { e.authScheme = scheme }
}

// WithWWWAuthenticate adds the challenge header to non-401 responses.
func WithWWWAuthenticate() Option {
	return func(e *Error) { e.addHeader = true }
}

// WithCause records the underlying error. The cause is never rendered.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// New creates an Error of the given kind. An empty description selects the
// kind's default description. New never fails: unknown kinds become
// ServerError.
func New(kind Kind, description string, opts ...Option) *Error {
	if !kind.Valid() {
		kind = ServerError
	}
	e := &Error{
		kind:        kind,
		name:        kind.Name(),
		description: description,
		authScheme:  DefaultAuthScheme,
	}
	if e.description == "" {
		e.description = kind.Description()
	}
	for _, opt := range opts {
		opt(e)
	}
	if kind == InsufficientScope {
		e.addHeader = true
	}
	e.sanitize()
	return e
}

// Annotate returns a copy of e with the options applied.
func (e *Error) Annotate(opts ...Option) *Error {
	c := *e
	for _, opt := range opts {
		opt(&c)
	}
	c.sanitize()
	return &c
}

func (e *Error) sanitize() {
	if e.authScheme == "" {
		e.authScheme = DefaultAuthScheme
	}
	e.name = SanitizeName(e.name)
	e.description = SanitizeDescription(e.description)
	e.errorURI = SanitizeURI(e.errorURI)
	e.scope = SanitizeScope(e.scope)
	e.state = SanitizeState(e.state)
	e.realm = SanitizeDescription(e.realm)
	e.authScheme = SanitizeURI(e.authScheme)
}

// Kind returns the error variant.
func (e *Error) Kind() Kind { return e.kind }

// Name returns the sanitized wire name.
func (e *Error) Name() string { return e.name }

// Description returns the sanitized description.
func (e *Error) Description() string { return e.description }

// ErrorURI returns the sanitized error_uri, or "".
func (e *Error) ErrorURI() string { return e.errorURI }

// Scope returns the sanitized, space delimited scope, or "".
func (e *Error) Scope() string { return e.scope }

// State returns the sanitized state, or "".
func (e *Error) State() string { return e.state }

// Realm returns the challenge realm, or "".
func (e *Error) Realm() string { return e.realm }

// AuthScheme returns the challenge scheme.
func (e *Error) AuthScheme() string { return e.authScheme }

// Status returns the HTTP status derived from the kind.
func (e *Error) Status() int { return e.kind.Status() }

// HasWWWAuthenticate reports whether rendering includes the challenge header.
func (e *Error) HasWWWAuthenticate() bool {
	return e.addHeader || e.Status() == 401
}

// Error implements error.
func (e *Error) Error() string {
	if e.description == "" {
		return "oauth2: " + e.name
	}
	return "oauth2: " + e.name + ": " + e.description
}

// Unwrap returns the cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Is matches a Kind target or another *Error of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.kind == t
	case *Error:
		return t != nil && e.kind == t.kind && e.name == t.name
	}
	return false
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// From converts any error into an *Error. OAuth2 errors are returned
// unchanged; anything else becomes a server_error with err as its cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if oe, ok := As(err); ok {
		return oe
	}
	return New(ServerError, "", WithCause(err))
}
