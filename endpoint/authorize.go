package endpoint

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/token"
)

// ResponseType is an authorization endpoint response_type.
type ResponseType string

const (
	// ResponseCode requests an authorization code (RFC 6749 §4.1).
	ResponseCode ResponseType = "code"
	// ResponseToken requests an access token directly (RFC 6749 §4.2).
	ResponseToken ResponseType = "token"
)

func (t ResponseType) grantType() grant.Type {
	if t == ResponseToken {
		return grant.Implicit
	}
	return grant.AuthorizationCode
}

// AuthorizationRequest is a validated authorization request awaiting the
// resource owner's decision.
type AuthorizationRequest struct {
	ResponseType ResponseType
	ClientID     string

	// RedirectURI is the effective redirection endpoint.
	RedirectURI string

	// RedirectURIProvided reports whether the request named RedirectURI
	// explicitly. The token request must then repeat it.
	RedirectURIProvided bool

	Scope token.Scope
	State string
}

// Consent is the resource owner's approval passed to GrantAccess.
type Consent struct {
	// Subject identifies the resource owner.
	Subject string

	// Scope is the approved scope. Nil approves the requested scope.
	Scope token.Scope

	// AdditionalData is stored with the issued code or token.
	AdditionalData map[string]any
}

// AuthenticateFunc renders the resource owner interface for a valid
// authorization request. The host later completes the request with
// GrantAccess or DenyAccess.
type AuthenticateFunc func(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest)

// AuthorizerConfig configures an Authorizer.
type AuthorizerConfig struct {
	// ClientStorage resolves client records. Required.
	ClientStorage client.Storage

	// TokenFactory generates codes and implicit access tokens. Required.
	TokenFactory token.Factory

	// CodeStore holds issued authorization codes. Required for the code
	// response type.
	CodeStore persist.Store

	// AccessTokenStorage stores implicit access tokens. Required for the
	// token response type.
	AccessTokenStorage token.Storage

	// OnAuthenticate is called for every valid request. Required.
	OnAuthenticate AuthenticateFunc

	// DefaultScope is used when a request carries no scope parameter.
	DefaultScope token.Scope

	// CodeLifetime is the authorization code lifetime.
	// Default: 10 minutes
	CodeLifetime time.Duration

	// AccessTokenLifetime is the implicit access token lifetime. Negative
	// values issue tokens that never expire.
	// Default: 1 hour
	AccessTokenLifetime time.Duration

	// AllowInsecureRequests accepts requests without TLS.
	AllowInsecureRequests bool

	// Instrumenter wraps every request.
	// Default: a logging-only instrumenter using Logger.
	Instrumenter *observe.Instrumenter

	// Logger is used when Instrumenter is nil.
	Logger observe.Logger

	// Now is the clock.
	// Default: time.Now
	Now func() time.Time
}

// Authorizer is the authorization endpoint.
type Authorizer struct {
	cfg   AuthorizerConfig
	codes *persist.CodeStore
}

// NewAuthorizer validates config and creates an Authorizer.
func NewAuthorizer(config AuthorizerConfig) (*Authorizer, error) {
	switch {
	case config.ClientStorage == nil:
		return nil, ErrMissingClientStorage
	case config.TokenFactory == nil:
		return nil, ErrMissingTokenFactory
	case config.OnAuthenticate == nil:
		return nil, ErrMissingOnAuthenticate
	case config.CodeStore == nil && config.AccessTokenStorage == nil:
		return nil, ErrMissingCodeStore
	}
	if config.CodeLifetime <= 0 {
		config.CodeLifetime = DefaultCodeLifetime
	}
	if config.AccessTokenLifetime == 0 {
		config.AccessTokenLifetime = DefaultAccessTokenLifetime
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Instrumenter == nil {
		config.Instrumenter = observe.NewInstrumenter(nil, nil, config.Logger)
	}

	a := &Authorizer{cfg: config}
	if config.CodeStore != nil {
		a.codes = persist.NewCodeStore(config.CodeStore, config.Now)
	}
	return a, nil
}

// TemporarilyUnavailable returns the error a host sends when it cannot
// serve authorization requests for a while.
func TemporarilyUnavailable() *oautherr.Error {
	return oautherr.Unavailable("")
}

// ServeHTTP validates an authorization request. Errors concerning the
// client or its redirection endpoint are rendered directly; all others
// are sent back to the client's redirection endpoint.
func (a *Authorizer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	op := &observe.Operation{Endpoint: observe.EndpointAuthorize}
	_ = a.cfg.Instrumenter.Observe(r.Context(), op, func(ctx context.Context) error {
		req, redirect, err := a.parse(ctx, r, op)
		switch {
		case err != nil && redirect == nil:
			_ = oautherr.From(err).Write(w)
		case err != nil:
			a.redirectError(w, r, redirect, err)
		default:
			a.cfg.OnAuthenticate(w, r, req)
		}
		return err
	})
}

// parse validates r. When the redirection endpoint is known, the returned
// request is non-nil even on error so the error can be redirected.
func (a *Authorizer) parse(ctx context.Context, r *http.Request, op *observe.Operation) (*AuthorizationRequest, *AuthorizationRequest, error) {
	if !a.cfg.AllowInsecureRequests && r.TLS == nil {
		return nil, nil, oautherr.InsecureConnection()
	}
	if err := r.ParseForm(); err != nil {
		return nil, nil, oautherr.MalformedRequest("Malformed request", oautherr.WithCause(err))
	}
	form := r.Form

	clientID, err := param(form, "client_id", true)
	if err != nil {
		return nil, nil, err
	}
	c, err := a.cfg.ClientStorage.Lookup(ctx, clientID)
	if errors.Is(err, client.ErrNotFound) {
		return nil, nil, oautherr.InvalidClientID()
	}
	if err != nil {
		return nil, nil, toOAuth(err, "client storage failure")
	}
	op.ClientID = c.ID

	redirectURI, err := param(form, "redirect_uri", false)
	if err != nil {
		return nil, nil, err
	}
	provided := redirectURI != ""
	if provided {
		if !c.HasRedirectURI(redirectURI) {
			return nil, nil, oautherr.MalformedParameter("redirect_uri")
		}
	} else {
		var ok bool
		if redirectURI, ok = c.DefaultRedirectURI(); !ok {
			return nil, nil, oautherr.MissingParameter("redirect_uri")
		}
	}

	req := &AuthorizationRequest{
		ClientID:            c.ID,
		RedirectURI:         redirectURI,
		RedirectURIProvided: provided,
	}

	rawType, typeErr := param(form, "response_type", true)
	req.ResponseType = ResponseType(rawType)

	state, err := param(form, "state", false)
	if err != nil {
		return nil, req, err
	}
	req.State = state

	if typeErr != nil {
		return nil, req, typeErr
	}
	switch req.ResponseType {
	case ResponseCode:
		if a.codes == nil {
			return nil, req, oautherr.UnsupportedResponse(rawType)
		}
	case ResponseToken:
		if a.cfg.AccessTokenStorage == nil {
			return nil, req, oautherr.UnsupportedResponse(rawType)
		}
	default:
		req.ResponseType = ResponseCode
		return nil, req, oautherr.UnsupportedResponse(rawType)
	}
	op.GrantType = req.ResponseType.grantType().String()
	if !c.AllowsGrant(req.ResponseType.grantType()) {
		return nil, req, oautherr.UnauthorizedResponse(rawType)
	}

	scope, ok, err := scopeParam(form)
	if err != nil {
		return nil, req, err
	}
	if !ok {
		scope = slices.Clone(a.cfg.DefaultScope)
	}
	req.Scope = scope

	return req, req, nil
}

// GrantAccess completes req after the resource owner approved it and
// redirects the user agent back to the client.
func (a *Authorizer) GrantAccess(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest, consent Consent) {
	op := &observe.Operation{
		Endpoint:  observe.EndpointAuthorize,
		GrantType: req.ResponseType.grantType().String(),
		ClientID:  req.ClientID,
	}
	_ = a.cfg.Instrumenter.Observe(r.Context(), op, func(ctx context.Context) error {
		values, err := a.grant(ctx, req, consent)
		if err != nil {
			a.redirectError(w, r, req, err)
			return err
		}
		a.redirect(w, r, req, values)
		return nil
	})
}

// DenyAccess rejects req on behalf of the resource owner.
func (a *Authorizer) DenyAccess(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest) {
	a.redirectError(w, r, req, oautherr.Denied("The resource owner denied the request"))
}

func (a *Authorizer) grant(ctx context.Context, req *AuthorizationRequest, consent Consent) (url.Values, error) {
	scope := req.Scope
	if consent.Scope != nil {
		if !consent.Scope.SubsetOf(req.Scope) {
			return nil, oautherr.InvalidScopeValue(consent.Scope.String())
		}
		scope = consent.Scope
	}

	now := a.cfg.Now()
	treq := &token.Request{
		ClientID:       req.ClientID,
		Scope:          scope,
		Subject:        consent.Subject,
		AdditionalData: consent.AdditionalData,
		Now:            now,
	}
	if req.ResponseType == ResponseToken {
		treq.Kind = token.KindAccess
		treq.Lifetime = lifetime(a.cfg.AccessTokenLifetime)
		treq.GrantType = grant.Implicit.String()
	} else {
		treq.Kind = token.KindCode
		treq.Lifetime = a.cfg.CodeLifetime
		treq.GrantType = grant.AuthorizationCode.String()
	}

	tok, err := a.cfg.TokenFactory.GenerateToken(ctx, treq)
	if err != nil {
		return nil, toOAuth(err, "token generation failed")
	}
	if tok == nil {
		return nil, oautherr.Server("token generation failed")
	}
	if err := token.Finalize(tok, treq); err != nil {
		return nil, oautherr.InvalidGeneratedToken(tok.Value, oautherr.WithCause(err))
	}

	values := url.Values{}
	if req.ResponseType == ResponseToken {
		if err := a.cfg.AccessTokenStorage.Store(ctx, tok); err != nil {
			return nil, toOAuth(err, "token storage failure")
		}
		values.Set("access_token", tok.Value)
		values.Set("token_type", oautherr.DefaultAuthScheme)
		if !tok.ExpiresAt.IsZero() {
			values.Set("expires_in", strconv.FormatInt(int64(math.Ceil(tok.ExpiresIn(now).Seconds())), 10))
		}
		if len(tok.Scope) > 0 {
			values.Set("scope", tok.Scope.String())
		}
	} else {
		c := &persist.Code{
			Value:          tok.Value,
			ClientID:       req.ClientID,
			Scope:          tok.Scope,
			Subject:        tok.Subject,
			AdditionalData: tok.AdditionalData,
			ExpiresAt:      tok.ExpiresAt,
		}
		if req.RedirectURIProvided {
			c.RedirectURI = req.RedirectURI
		}
		if err := a.codes.Save(ctx, c); err != nil {
			return nil, toOAuth(err, "code storage failure")
		}
		values.Set("code", tok.Value)
	}
	if req.State != "" {
		values.Set("state", req.State)
	}
	return values, nil
}

func (a *Authorizer) redirectError(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest, err error) {
	oe := oautherr.From(err)
	if req.State != "" && oe.State() == "" {
		oe = oe.Annotate(oautherr.WithState(req.State))
	}
	a.redirect(w, r, req, oe.Values())
}

// redirect sends values to the client in the query for the code flow and
// in the fragment for the implicit flow (RFC 6749 §4.1.2, §4.2.2).
func (a *Authorizer) redirect(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest, values url.Values) {
	u, err := url.Parse(req.RedirectURI)
	if err != nil {
		_ = oautherr.MalformedParameter("redirect_uri").Write(w)
		return
	}

	if req.ResponseType == ResponseToken {
		u.Fragment = ""
		u.RawFragment = ""
		target := u.String() + "#" + values.Encode()
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	q := u.Query()
	for k, vs := range values {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u.String(), http.StatusFound)
}
