package oautherr

// Named constructors for the failures detected by the engine.

// MissingParameter reports a required parameter that was not sent.
func MissingParameter(name string, opts ...Option) *Error {
	return New(InvalidRequest, "Missing "+name+" parameter", opts...)
}

// MultipleParameter reports a parameter that was sent more than once.
func MultipleParameter(name string, opts ...Option) *Error {
	return New(InvalidRequest, "Multiple values for parameter "+name, opts...)
}

// MalformedParameter reports a parameter whose value violates its grammar.
func MalformedParameter(name string, opts ...Option) *Error {
	return New(InvalidRequest, "Malformed parameter "+name, opts...)
}

// MalformedRequest reports a request that cannot be parsed at all.
func MalformedRequest(description string, opts ...Option) *Error {
	if description == "" {
		description = "The request is malformed"
	}
	return New(InvalidRequest, description, opts...)
}

// InsecureConnection reports a request received over plain HTTP.
func InsecureConnection(opts ...Option) *Error {
	return New(InvalidRequest, "OAuth 2.0 requires calls over HTTPS.", opts...)
}

// DifferentRedirectURI reports a redirect_uri that differs from the one used
// at authorization time.
func DifferentRedirectURI(opts ...Option) *Error {
	return New(InvalidRequest, "The redirect_uri does not match the one used in the authorization request", opts...)
}

// UnsupportedGrant reports a grant type the server does not accept.
func UnsupportedGrant(grantType string, opts ...Option) *Error {
	return New(UnsupportedGrantType, "The grant type "+grantType+" is not supported", opts...)
}

// UnsupportedResponse reports a response type the server does not accept.
func UnsupportedResponse(responseType string, opts ...Option) *Error {
	return New(UnsupportedResponseType, "The response type "+responseType+" is not supported", opts...)
}

// InvalidClientID reports an unknown client identifier.
func InvalidClientID(opts ...Option) *Error {
	return New(InvalidClient, "Invalid client_id", opts...)
}

// NoClientAuthentication reports a request without any client identification.
func NoClientAuthentication(opts ...Option) *Error {
	return New(InvalidClient, "No client authentication provided", opts...)
}

// MultipleClientAuthentication reports a client using more than one
// authentication method in the same request.
func MultipleClientAuthentication(opts ...Option) *Error {
	return New(InvalidClient, "Multiple methods of client authentication", opts...)
}

// MultipleClientCredentials reports conflicting client identifiers.
func MultipleClientCredentials(opts ...Option) *Error {
	return New(InvalidClient, "Conflicting client identifiers", opts...)
}

// InvalidClientAuthentication reports a wrong or missing client secret.
func InvalidClientAuthentication(opts ...Option) *Error {
	return New(InvalidClient, "Invalid client authentication", opts...)
}

// UnauthorizedGrant reports a client not permitted to use grantType.
func UnauthorizedGrant(grantType string, opts ...Option) *Error {
	return New(UnauthorizedClient, "The client is not authorized to use the grant type "+grantType, opts...)
}

// UnauthorizedResponse reports a client not permitted to use responseType.
func UnauthorizedResponse(responseType string, opts ...Option) *Error {
	return New(UnauthorizedClient, "The client is not authorized to use the response type "+responseType, opts...)
}

// InvalidGrantValue reports an invalid code, refresh token or resource owner
// credential. what names the rejected value, e.g. "refresh token".
func InvalidGrantValue(what string, opts ...Option) *Error {
	return New(InvalidGrant, "The provided "+what+" is invalid", opts...)
}

// InvalidScopeValue reports a malformed or disallowed scope.
func InvalidScopeValue(scope string, opts ...Option) *Error {
	opts = append([]Option{WithScope(scope)}, opts...)
	return New(InvalidScope, "The provided scope is invalid: "+scope, opts...)
}

// Denied reports that the resource owner denied the request.
func Denied(description string, opts ...Option) *Error {
	return New(AccessDenied, description, opts...)
}

// Unavailable reports a temporary overload or backend outage.
func Unavailable(description string, opts ...Option) *Error {
	return New(TemporarilyUnavailable, description, opts...)
}

// Server reports an internal fault.
func Server(description string, opts ...Option) *Error {
	return New(ServerError, description, opts...)
}

// InvalidGeneratedToken reports a token factory result that failed
// validation.
func InvalidGeneratedToken(value string, opts ...Option) *Error {
	return New(ServerError, "Generated token is invalid: "+value, opts...)
}

// NoToken reports a protected resource request without a bearer token.
func NoToken(scope []string, opts ...Option) *Error {
	opts = append([]Option{WithScope(scope...)}, opts...)
	return New(MissingToken, "", opts...)
}

// BadToken reports a malformed, unknown or expired bearer token.
func BadToken(scope []string, opts ...Option) *Error {
	opts = append([]Option{WithScope(scope...)}, opts...)
	return New(InvalidToken, "", opts...)
}

// MissingScope reports a valid bearer token without the required scope.
func MissingScope(scope []string, opts ...Option) *Error {
	opts = append([]Option{WithScope(scope...)}, opts...)
	return New(InsufficientScope, "", opts...)
}

// MultipleTokens reports a request presenting more than one bearer token.
func MultipleTokens(scope []string, opts ...Option) *Error {
	opts = append([]Option{WithScope(scope...), WithWWWAuthenticate()}, opts...)
	return New(InvalidRequest, "Found multiple access tokens", opts...)
}
