package oautherr

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// ContentTypeJSON is the content type of every OAuth 2.0 JSON response.
const ContentTypeJSON = "application/json;charset=UTF-8"

// Body is the JSON error response body.
type Body struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
	State            string `json:"state,omitempty"`
}

// SetResponseHeaders sets the content type and no-cache headers required on
// token and error responses (RFC 6749 §5.1).
func SetResponseHeaders(h http.Header) {
	h.Set("Content-Type", ContentTypeJSON)
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
}

// Body returns the response body.
func (e *Error) Body() Body {
	return Body{
		Error:            e.name,
		ErrorDescription: e.description,
		ErrorURI:         e.errorURI,
		State:            e.state,
	}
}

// MarshalJSON encodes the response body.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Body())
}

// WWWAuthenticate returns the challenge header value.
//
//	Bearer realm="api", error="invalid_token", error_description="...", scope="read", state="xyz"
func (e *Error) WWWAuthenticate() string {
	params := make([]string, 0, 6)
	add := func(key, value string) {
		params = append(params, key+"="+quote(value))
	}
	if e.realm != "" {
		add("realm", e.realm)
	}
	add("error", e.name)
	if e.description != "" {
		add("error_description", e.description)
	}
	if e.errorURI != "" {
		add("error_uri", e.errorURI)
	}
	if e.scope != "" {
		add("scope", e.scope)
	}
	if e.state != "" {
		add("state", e.state)
	}
	return e.authScheme + " " + strings.Join(params, ", ")
}

// Header returns the response headers.
func (e *Error) Header() http.Header {
	h := make(http.Header, 4)
	SetResponseHeaders(h)
	if e.HasWWWAuthenticate() {
		h.Set("WWW-Authenticate", e.WWWAuthenticate())
	}
	return h
}

// Write renders the error to w.
func (e *Error) Write(w http.ResponseWriter) error {
	dst := w.Header()
	for k, v := range e.Header() {
		dst[k] = v
	}
	w.WriteHeader(e.Status())
	return json.NewEncoder(w).Encode(e.Body())
}

// Values returns the error as redirect parameters (RFC 6749 §4.1.2.1).
func (e *Error) Values() url.Values {
	v := url.Values{}
	v.Set("error", e.name)
	if e.description != "" {
		v.Set("error_description", e.description)
	}
	if e.errorURI != "" {
		v.Set("error_uri", e.errorURI)
	}
	if e.state != "" {
		v.Set("state", e.state)
	}
	return v
}

// quote renders s as an RFC 7230 quoted-string. Sanitized fields contain no
// '"' or '\', except state, which may.
func quote(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return `"` + s + `"`
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
