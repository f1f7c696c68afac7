// Package grant defines OAuth 2.0 grant type identifiers and the registry of
// custom grant handlers.
//
// Built-in grant types are a closed set handled by the token endpoint.
// Extension grant types (RFC 6749 §4.5) are dispatched by looking up their
// identifier in a Registry.
package grant
