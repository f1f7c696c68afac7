// Package client models OAuth 2.0 clients and their authentication.
//
// CredentialsFromRequest extracts the client identifier and secret from a
// token request (HTTP Basic or body parameters, RFC 6749 §2.3.1). A Storage
// authenticates those credentials and returns the Client record.
package client
