// Package endpoint implements the OAuth 2.0 token and authorization
// endpoints as net/http handlers.
//
// TokenResource runs the token request state machine:
//
//	Received -> ClientAuthenticated -> GrantValidated -> TokenIssued
//
// with every failure rendered as an OAuth 2.0 error response. Built-in grant
// types are authorization_code, password, client_credentials and
// refresh_token; extension grants are dispatched through a grant.Registry.
// Tokens are generated and validated before anything is written to storage,
// so a rejected request never leaves partial state behind.
//
// Authorizer serves the authorization endpoint for the code and implicit
// flows. It validates the request, hands it to the host through the
// OnAuthenticate hook and completes it with GrantAccess or DenyAccess.
package endpoint
