package client

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jonwraymond/tokenops/oautherr"
)

// Method identifies how a client presented its credentials.
type Method int

const (
	// MethodNone means only a client_id body parameter was sent.
	MethodNone Method = iota
	// MethodBasic means HTTP Basic authentication.
	MethodBasic
	// MethodPost means client_id and client_secret body parameters.
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodBasic:
		return "client_secret_basic"
	case MethodPost:
		return "client_secret_post"
	default:
		return "none"
	}
}

// Credentials are the client credentials presented in one request.
type Credentials struct {
	ClientID  string
	Secret    string
	HasSecret bool
	Method    Method
}

// CredentialsFromRequest extracts client credentials from the Authorization
// header and the parsed form body. All failures are invalid_request or
// invalid_client OAuth2 errors.
func CredentialsFromRequest(r *http.Request, form url.Values) (Credentials, error) {
	bodyID, err := single(form, "client_id")
	if err != nil {
		return Credentials{}, err
	}
	bodySecret, err := single(form, "client_secret")
	if err != nil {
		return Credentials{}, err
	}
	_, hasBodySecret := form["client_secret"]

	if header := r.Header.Get("Authorization"); hasScheme(header, "Basic") {
		id, secret, ok := r.BasicAuth()
		if !ok {
			return Credentials{}, oautherr.New(oautherr.InvalidClient, "Malformed Authorization header")
		}
		if id, err = url.QueryUnescape(id); err != nil {
			return Credentials{}, oautherr.New(oautherr.InvalidClient, "Malformed Authorization header")
		}
		if secret, err = url.QueryUnescape(secret); err != nil {
			return Credentials{}, oautherr.New(oautherr.InvalidClient, "Malformed Authorization header")
		}
		if hasBodySecret {
			return Credentials{}, oautherr.MultipleClientAuthentication()
		}
		if bodyID != "" && bodyID != id {
			return Credentials{}, oautherr.MultipleClientCredentials()
		}
		if id == "" {
			return Credentials{}, oautherr.NoClientAuthentication()
		}
		return Credentials{ClientID: id, Secret: secret, HasSecret: true, Method: MethodBasic}, nil
	}

	if bodyID == "" {
		return Credentials{}, oautherr.NoClientAuthentication()
	}
	creds := Credentials{ClientID: bodyID, Method: MethodNone}
	if hasBodySecret {
		creds.Secret = bodySecret
		creds.HasSecret = true
		creds.Method = MethodPost
	}
	return creds, nil
}

func hasScheme(header, scheme string) bool {
	return len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) && header[len(scheme)] == ' '
}

func single(form url.Values, name string) (string, error) {
	values := form[name]
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return values[0], nil
	default:
		return "", oautherr.MultipleParameter(name)
	}
}
