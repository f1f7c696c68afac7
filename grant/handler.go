package grant

import (
	"context"
	"net/http"
	"net/url"
)

// Request is a token request for an extension grant type, after the client
// has been authenticated and authorized for the grant.
type Request struct {
	// Type is the requested grant type.
	Type Type

	// ClientID is the authenticated client.
	ClientID string

	// Scope is the requested scope, or the default scope when none was sent.
	Scope []string

	// Params holds the form parameters of the token request.
	Params url.Values

	// HTTPRequest is the original request, for handlers that inspect
	// headers or TLS state.
	HTTPRequest *http.Request
}

// Authorization is the outcome of a successful custom grant.
type Authorization struct {
	// Scope is the granted scope. It must be a subset of Request.Scope.
	Scope []string

	// Subject identifies the resource owner, if any.
	Subject string

	// AdditionalData is stored with the issued tokens.
	AdditionalData map[string]any

	// IssueRefreshToken requests a refresh token alongside the access token.
	IssueRefreshToken bool
}

// Handler validates an extension grant.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines.
// - Errors: failures should be *oautherr.Error values; they are rendered to
// the client unchanged. Any other error becomes server_error.
type Handler interface {
	HandleGrant(ctx context.Context, req *Request) (*Authorization, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (*Authorization, error)

// HandleGrant calls f.
func (f HandlerFunc) HandleGrant(ctx context.Context, req *Request) (*Authorization, error) {
	return f(ctx, req)
}

var _ Handler = HandlerFunc(nil)
