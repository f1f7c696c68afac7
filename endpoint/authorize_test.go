package endpoint

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/token"
)

const authorizeURL = "https://auth.example.com/authorize"

// authorizeHarness wires an Authorizer to the token endpoint harness.
type authorizeHarness struct {
	*harness
	az      *Authorizer
	pending *AuthorizationRequest
}

func newAuthorizeHarness(t *testing.T, mutate func(*AuthorizerConfig)) *authorizeHarness {
	t.Helper()
	ah := &authorizeHarness{harness: newHarness(t, nil)}

	cfg := AuthorizerConfig{
		ClientStorage:      ah.clients,
		TokenFactory:       token.NewUUIDFactory(),
		CodeStore:          ah.codes,
		AccessTokenStorage: ah.access,
		OnAuthenticate: func(w http.ResponseWriter, _ *http.Request, req *AuthorizationRequest) {
			ah.pending = req
			w.WriteHeader(http.StatusOK)
		},
		Now: ah.clock.Now,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	az, err := NewAuthorizer(cfg)
	if err != nil {
		t.Fatalf("NewAuthorizer() error = %v", err)
	}
	ah.az = az
	return ah
}

func (ah *authorizeHarness) authorize(params url.Values) *httptest.ResponseRecorder {
	ah.t.Helper()
	ah.pending = nil
	rec := httptest.NewRecorder()
	ah.az.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, authorizeURL+"?"+params.Encode(), nil))
	return rec
}

func (ah *authorizeHarness) grant(req *AuthorizationRequest, consent Consent) *url.URL {
	ah.t.Helper()
	rec := httptest.NewRecorder()
	ah.az.GrantAccess(rec, httptest.NewRequest(http.MethodPost, authorizeURL, nil), req, consent)
	return location(ah.t, rec)
}

func location(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302; body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	u, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	return u
}

func TestAuthorizer_CodeFlow(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	rec := ah.authorize(url.Values{
		"response_type": {"code"},
		"client_id":     {confidentialID},
		"redirect_uri":  {redirectURI},
		"scope":         {"read write"},
		"state":         {"xyz"},
	})
	if rec.Code != http.StatusOK || ah.pending == nil {
		t.Fatalf("OnAuthenticate not called: status %d, body %s", rec.Code, rec.Body.String())
	}
	req := ah.pending
	if req.ResponseType != ResponseCode || !req.RedirectURIProvided || req.State != "xyz" {
		t.Errorf("request = %+v", req)
	}

	u := ah.grant(req, Consent{Subject: "alice", Scope: token.Scope{"read"}})
	if got := u.Scheme + "://" + u.Host + u.Path; got != redirectURI {
		t.Errorf("redirected to %q", got)
	}
	q := u.Query()
	if q.Get("state") != "xyz" {
		t.Errorf("state = %q", q.Get("state"))
	}
	code := q.Get("code")
	if code == "" {
		t.Fatalf("no code in %s", u)
	}

	exchange := url.Values{"grant_type": {"authorization_code"}, "code": {code}, "redirect_uri": {redirectURI}}
	resp := decodeToken(t, ah.post(exchange, confidentialID, confidentialSecret))
	if resp.Scope != "read" {
		t.Errorf("scope = %q, want read", resp.Scope)
	}
	tok, err := ah.access.Lookup(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if tok.Subject != "alice" {
		t.Errorf("subject = %q", tok.Subject)
	}

	expectError(t, ah.post(exchange, confidentialID, confidentialSecret), http.StatusBadRequest, "invalid_grant")
}

func TestAuthorizer_CodeFlowRedirectMismatch(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	ah.authorize(url.Values{"response_type": {"code"}, "client_id": {publicID}, "redirect_uri": {redirectURI}})
	if ah.pending == nil {
		t.Fatal("OnAuthenticate not called")
	}
	code := ah.grant(ah.pending, Consent{Subject: "alice"}).Query().Get("code")

	rec := ah.post(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {publicID},
		"redirect_uri": {"https://app.example.com/other"},
	}, "", "")
	expectError(t, rec, http.StatusBadRequest, "invalid_request")

	decodeToken(t, ah.post(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {publicID},
		"redirect_uri": {redirectURI},
	}, "", ""))
}

func TestAuthorizer_DefaultRedirectNotRequiredAtTokenEndpoint(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	ah.authorize(url.Values{"response_type": {"code"}, "client_id": {confidentialID}})
	if ah.pending == nil {
		t.Fatal("OnAuthenticate not called")
	}
	if ah.pending.RedirectURIProvided || ah.pending.RedirectURI != redirectURI {
		t.Fatalf("request = %+v", ah.pending)
	}
	code := ah.grant(ah.pending, Consent{}).Query().Get("code")

	decodeToken(t, ah.post(url.Values{"grant_type": {"authorization_code"}, "code": {code}}, confidentialID, confidentialSecret))
}

func TestAuthorizer_ImplicitFlow(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	ah.authorize(url.Values{
		"response_type": {"token"},
		"client_id":     {publicID},
		"redirect_uri":  {redirectURI},
		"scope":         {"read"},
		"state":         {"s1"},
	})
	if ah.pending == nil {
		t.Fatal("OnAuthenticate not called")
	}

	u := ah.grant(ah.pending, Consent{Subject: "alice"})
	if u.RawQuery != "" {
		t.Errorf("implicit flow must not use the query: %s", u)
	}
	frag, err := url.ParseQuery(u.Fragment)
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	if frag.Get("token_type") != "Bearer" || frag.Get("expires_in") != "3600" || frag.Get("scope") != "read" || frag.Get("state") != "s1" {
		t.Errorf("fragment = %v", frag)
	}
	if _, err := ah.access.Lookup(context.Background(), frag.Get("access_token")); err != nil {
		t.Errorf("implicit token not stored: %v", err)
	}
}

func TestAuthorizer_DirectErrors(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	tests := []struct {
		name   string
		params url.Values
		status int
		error  string
		desc   string
	}{
		{"missing client_id", url.Values{"response_type": {"code"}}, http.StatusBadRequest, "invalid_request", "Missing client_id parameter"},
		{"unknown client", url.Values{"response_type": {"code"}, "client_id": {"nobody"}}, http.StatusUnauthorized, "invalid_client", "Invalid client_id"},
		{"unregistered redirect", url.Values{"response_type": {"code"}, "client_id": {confidentialID}, "redirect_uri": {"https://evil.example.com/"}}, http.StatusBadRequest, "invalid_request", "Malformed parameter redirect_uri"},
		{"ambiguous default redirect", url.Values{"response_type": {"code"}, "client_id": {publicID}}, http.StatusBadRequest, "invalid_request", "Missing redirect_uri parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ah.authorize(tt.params)
			if loc := rec.Header().Get("Location"); loc != "" {
				t.Fatalf("must not redirect, Location = %q", loc)
			}
			body := expectError(t, rec, tt.status, tt.error)
			if body.ErrorDescription != tt.desc {
				t.Errorf("error_description = %q, want %q", body.ErrorDescription, tt.desc)
			}
			if ah.pending != nil {
				t.Error("OnAuthenticate must not be called")
			}
		})
	}
}

func TestAuthorizer_RedirectedErrors(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)
	mustAdd(t, ah.clients.AddWithSecret(&client.Client{
		ID:           "machine",
		RedirectURIs: []string{redirectURI},
		GrantTypes:   []grant.Type{grant.ClientCredentials},
	}, confidentialSecret))

	tests := []struct {
		name     string
		params   url.Values
		error    string
		fragment bool
	}{
		{"missing response_type", url.Values{"client_id": {confidentialID}, "state": {"st"}}, "invalid_request", false},
		{"unsupported response_type", url.Values{"client_id": {confidentialID}, "response_type": {"id_token"}, "state": {"st"}}, "unsupported_response_type", false},
		{"client not allowed", url.Values{"client_id": {"machine"}, "response_type": {"code"}, "state": {"st"}}, "unauthorized_client", false},
		{"malformed scope", url.Values{"client_id": {publicID}, "response_type": {"token"}, "redirect_uri": {redirectURI}, "scope": {`a"b`}, "state": {"st"}}, "invalid_scope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := location(t, ah.authorize(tt.params))
			values := u.Query()
			if tt.fragment {
				var err error
				if values, err = url.ParseQuery(u.Fragment); err != nil {
					t.Fatalf("parse fragment: %v", err)
				}
			}
			if values.Get("error") != tt.error {
				t.Errorf("error = %q, want %q (%s)", values.Get("error"), tt.error, u)
			}
			if values.Get("state") != "st" {
				t.Errorf("state = %q, want st", values.Get("state"))
			}
		})
	}
}

func TestAuthorizer_UnsupportedWithoutStore(t *testing.T) {
	ah := newAuthorizeHarness(t, func(c *AuthorizerConfig) { c.AccessTokenStorage = nil })

	u := location(t, ah.authorize(url.Values{"client_id": {publicID}, "response_type": {"token"}, "redirect_uri": {redirectURI}}))
	frag, _ := url.ParseQuery(u.Fragment)
	if frag.Get("error") != "unsupported_response_type" {
		t.Errorf("fragment = %v", frag)
	}
}

func TestAuthorizer_DenyAccess(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	ah.authorize(url.Values{"response_type": {"code"}, "client_id": {confidentialID}, "state": {"abc"}})
	if ah.pending == nil {
		t.Fatal("OnAuthenticate not called")
	}

	rec := httptest.NewRecorder()
	ah.az.DenyAccess(rec, httptest.NewRequest(http.MethodPost, authorizeURL, nil), ah.pending)
	q := location(t, rec).Query()
	if q.Get("error") != "access_denied" || q.Get("state") != "abc" {
		t.Errorf("query = %v", q)
	}
	if ah.codes.Len() != 0 {
		t.Error("denied request must not store a code")
	}
}

func TestAuthorizer_ConsentScopeOutsideRequest(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	ah.authorize(url.Values{"response_type": {"code"}, "client_id": {confidentialID}, "scope": {"read"}})
	q := ah.grant(ah.pending, Consent{Scope: token.Scope{"admin"}}).Query()
	if q.Get("error") != "invalid_scope" {
		t.Errorf("query = %v", q)
	}
}

func TestAuthorizer_MethodNotAllowed(t *testing.T) {
	ah := newAuthorizeHarness(t, nil)

	rec := httptest.NewRecorder()
	ah.az.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, authorizeURL, nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, POST" {
		t.Errorf("status = %d, Allow = %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestNewAuthorizer_Validation(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request, *AuthorizationRequest) {}
	tests := []struct {
		name string
		cfg  AuthorizerConfig
		want error
	}{
		{"no clients", AuthorizerConfig{TokenFactory: token.NewUUIDFactory(), OnAuthenticate: noop}, ErrMissingClientStorage},
		{"no factory", AuthorizerConfig{ClientStorage: newHarness(t, nil).clients, OnAuthenticate: noop}, ErrMissingTokenFactory},
		{"no callback", AuthorizerConfig{ClientStorage: newHarness(t, nil).clients, TokenFactory: token.NewUUIDFactory()}, ErrMissingOnAuthenticate},
		{"no stores", AuthorizerConfig{ClientStorage: newHarness(t, nil).clients, TokenFactory: token.NewUUIDFactory(), OnAuthenticate: noop}, ErrMissingCodeStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAuthorizer(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("NewAuthorizer() error = %v, want %v", err, tt.want)
			}
		})
	}
}
