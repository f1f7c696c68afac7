// Package oautherr implements the OAuth 2.0 error taxonomy (RFC 6749 §5.2,
// RFC 6750 §3.1).
//
// Every failure the engine reports on the wire is an *Error: a Kind from a
// closed set plus sanitized payload fields. Errors render to an HTTP status,
// a header set and a JSON body. Any error whose status is 401 always carries a
// WWW-Authenticate challenge; other statuses carry it only when requested.
//
// Field values are sanitized once, at construction. Characters outside the
// grammar of a field are replaced with '?', so construction never fails and
// field lengths are preserved.
package oautherr
