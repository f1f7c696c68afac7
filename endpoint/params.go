package endpoint

import (
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/token"
)

const formContentType = "application/x-www-form-urlencoded"

// readBody parses a form encoded request body. Query parameters are
// ignored.
func readBody(r *http.Request) (url.Values, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != formContentType {
		return nil, oautherr.MalformedRequest("Content-Type must be " + formContentType)
	}
	if err := r.ParseForm(); err != nil {
		return nil, oautherr.MalformedRequest("Malformed request body", oautherr.WithCause(err))
	}
	return r.PostForm, nil
}

// param returns the single value of name. Parameters sent without a value
// are treated as absent (RFC 6749 §3.1).
func param(form url.Values, name string, required bool) (string, error) {
	values := form[name]
	if len(values) > 1 {
		return "", oautherr.MultipleParameter(name)
	}
	if len(values) == 0 || values[0] == "" {
		if required {
			return "", oautherr.MissingParameter(name)
		}
		return "", nil
	}
	return values[0], nil
}

// scopeParam parses the scope parameter. ok is false when it was absent.
func scopeParam(form url.Values) (scope token.Scope, ok bool, err error) {
	raw, err := param(form, "scope", false)
	if err != nil || raw == "" {
		return nil, false, err
	}
	scope, err = token.ParseScope(raw)
	if err != nil {
		return nil, false, oautherr.InvalidScopeValue(raw, oautherr.WithCause(err))
	}
	return scope, true, nil
}

// toOAuth converts collaborator errors for rendering. OAuth2 errors pass
// through unchanged.
func toOAuth(err error, description string) error {
	if err == nil {
		return nil
	}
	var oe *oautherr.Error
	if errors.As(err, &oe) {
		return oe
	}
	return oautherr.Server(description, oautherr.WithCause(err))
}
