package guard

import (
	"mime"
	"net/http"
	"strings"

	"github.com/jonwraymond/tokenops/oautherr"
)

const formContentType = "application/x-www-form-urlencoded"

// bearerTokens collects every token presented with r (RFC 6750 §2): the
// Authorization header, the access_token body field of form-encoded POST
// requests and the access_token query parameter.
func bearerTokens(r *http.Request) ([]string, *oautherr.Error) {
	var values []string

	for _, header := range r.Header.Values("Authorization") {
		if v, ok := extractBearerToken(header); ok {
			values = append(values, v)
		}
	}

	if r.Method == http.MethodPost && isForm(r.Header.Get("Content-Type")) {
		if err := r.ParseForm(); err != nil {
			return nil, oautherr.MalformedRequest("", oautherr.WithCause(err))
		}
		values = append(values, r.PostForm["access_token"]...)
	}

	values = append(values, r.URL.Query()["access_token"]...)
	return values, nil
}

// fromQuery reports whether r carries its token in the URI query. Responses
// to such requests must be marked private (RFC 6750 §2.3).
func fromQuery(r *http.Request) bool {
	return r.URL.Query().Has("access_token")
}

// extractBearerToken returns the credentials of a Bearer Authorization
// header. The scheme is matched case-insensitively. An empty credential is
// returned as presented so it is reported as an invalid token.
func extractBearerToken(header string) (string, bool) {
	const scheme = "bearer"
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	rest := header[len(scheme):]
	if rest != "" && rest[0] != ' ' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func isForm(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == formContentType
}
