package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/token"
)

// Response is a successful token response (RFC 6749 §5.1).
type Response struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenResource is the token endpoint.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: every failure is rendered as an OAuth 2.0 error response.
// Errors from collaborators that are not *oautherr.Error become
// server_error.
type TokenResource struct {
	cfg     Config
	codes   *persist.CodeStore
	enabled []grant.Type
}

// NewTokenResource validates config and registers its access token storage
// as the process-wide singleton. If a different storage is already
// registered, the existing one stays in place and a warning is logged.
func NewTokenResource(ctx context.Context, config Config) (*TokenResource, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tr := &TokenResource{cfg: config, enabled: config.GrantTypes}
	if config.CodeStore != nil {
		tr.codes = persist.NewCodeStore(config.CodeStore, config.Now)
	}
	config.Registry.Register(ctx, config.AccessTokenStorage)
	return tr, nil
}

// GrantTypes returns the enabled built-in grant types.
func (tr *TokenResource) GrantTypes() []grant.Type {
	return slices.Clone(tr.enabled)
}

// ServeHTTP handles a token request.
func (tr *TokenResource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resp, err := tr.Token(r.Context(), r)
	if err != nil {
		_ = tr.annotate(err).Write(w)
		return
	}

	oautherr.SetResponseHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Token processes a token request and returns the response to send. The
// returned error is always an *oautherr.Error.
func (tr *TokenResource) Token(ctx context.Context, r *http.Request) (*Response, error) {
	op := &observe.Operation{Endpoint: observe.EndpointToken}

	var resp *Response
	err := tr.cfg.Instrumenter.Observe(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = tr.handle(ctx, r, op)
		return err
	})
	if err != nil {
		return nil, oautherr.From(err)
	}
	return resp, nil
}

func (tr *TokenResource) annotate(err error) *oautherr.Error {
	oe := oautherr.From(err)
	if tr.cfg.Realm != "" && oe.Realm() == "" {
		oe = oe.Annotate(oautherr.WithRealm(tr.cfg.Realm))
	}
	return oe
}

// handle runs the state machine. Nothing is persisted before issue.
func (tr *TokenResource) handle(ctx context.Context, r *http.Request, op *observe.Operation) (*Response, error) {
	// Received
	if !tr.cfg.AllowInsecureRequests && r.TLS == nil {
		return nil, oautherr.InsecureConnection()
	}
	form, err := readBody(r)
	if err != nil {
		return nil, err
	}

	raw, err := param(form, "grant_type", true)
	if err != nil {
		return nil, err
	}
	gt := grant.Type(raw)
	if !gt.Valid() {
		return nil, oautherr.MalformedParameter("grant_type")
	}
	custom, isCustom := tr.customHandler(gt)
	if !isCustom && !slices.Contains(tr.enabled, gt) {
		return nil, oautherr.UnsupportedGrant(raw)
	}
	op.GrantType = raw

	// ClientAuthenticated
	c, err := tr.authenticate(ctx, r, form)
	if err != nil {
		return nil, err
	}
	op.ClientID = c.ID
	if !c.AllowsGrant(gt) {
		return nil, oautherr.UnauthorizedGrant(raw)
	}

	// GrantValidated
	var iss *issuance
	switch {
	case isCustom:
		iss, err = tr.customGrant(ctx, r, form, c, gt, custom)
	case gt == grant.AuthorizationCode:
		iss, err = tr.authorizationCodeGrant(ctx, form, c)
	case gt == grant.Password:
		iss, err = tr.passwordGrant(ctx, form)
	case gt == grant.ClientCredentials:
		iss, err = tr.clientCredentialsGrant(form)
	case gt == grant.RefreshToken:
		iss, err = tr.refreshTokenGrant(ctx, form, c)
	default:
		err = oautherr.UnsupportedGrant(raw)
	}
	if err != nil {
		return nil, err
	}

	// TokenIssued
	return tr.issue(ctx, c, gt, iss)
}

func (tr *TokenResource) customHandler(gt grant.Type) (grant.Handler, bool) {
	if gt.IsBuiltin() {
		return nil, false
	}
	return tr.cfg.CustomGrants.Lookup(gt)
}

func (tr *TokenResource) authenticate(ctx context.Context, r *http.Request, form url.Values) (*client.Client, error) {
	creds, err := client.CredentialsFromRequest(r, form)
	if err != nil {
		return nil, err
	}

	c, err := tr.cfg.ClientStorage.Authenticate(ctx, creds)
	if err != nil {
		oe := oautherr.From(toOAuth(err, "client storage failure"))
		if creds.Method == client.MethodBasic && oe.Kind() == oautherr.InvalidClient {
			oe = oe.Annotate(oautherr.WithAuthScheme("Basic"))
		}
		return nil, oe
	}
	if c == nil {
		return nil, oautherr.InvalidClientID()
	}
	return c, nil
}

// requestedScope returns the scope parameter, falling back to DefaultScope.
func (tr *TokenResource) requestedScope(form url.Values, strict bool) (token.Scope, error) {
	scope, ok, err := scopeParam(form)
	if err != nil {
		return nil, err
	}
	if ok {
		return scope, nil
	}
	if len(tr.cfg.DefaultScope) == 0 && strict && tr.cfg.RequireScope {
		return nil, oautherr.MissingParameter("scope")
	}
	return slices.Clone(tr.cfg.DefaultScope), nil
}
