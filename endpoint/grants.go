package endpoint

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/url"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/token"
)

// issuance is a validated grant waiting for tokens.
type issuance struct {
	scope   token.Scope
	subject string
	data    map[string]any
	refresh bool

	// consume runs after the tokens are generated and before they are
	// stored. It claims single-use credentials.
	consume func(ctx context.Context) error

	// retire is a refresh token to invalidate once the new tokens are
	// stored.
	retire string
}

func (tr *TokenResource) authorizationCodeGrant(ctx context.Context, form url.Values, c *client.Client) (*issuance, error) {
	code, err := param(form, "code", true)
	if err != nil {
		return nil, err
	}
	redirectURI, err := param(form, "redirect_uri", false)
	if err != nil {
		return nil, err
	}
	if !token.ValidValue(code) {
		return nil, oautherr.InvalidGrantValue("authorization code")
	}

	rec, err := tr.codes.Get(ctx, code)
	if errors.Is(err, persist.ErrNotFound) {
		return nil, oautherr.InvalidGrantValue("authorization code")
	}
	if err != nil {
		return nil, toOAuth(err, "code storage failure")
	}
	if rec.ClientID != c.ID {
		return nil, oautherr.InvalidGrantValue("authorization code")
	}
	if rec.RedirectURI != "" {
		if redirectURI == "" {
			return nil, oautherr.MissingParameter("redirect_uri")
		}
		if redirectURI != rec.RedirectURI {
			return nil, oautherr.DifferentRedirectURI()
		}
	}

	scope := rec.Scope
	if requested, ok, err := scopeParam(form); err != nil {
		return nil, err
	} else if ok {
		if !requested.SubsetOf(rec.Scope) {
			return nil, oautherr.InvalidScopeValue(requested.String())
		}
		scope = requested
	}

	return &issuance{
		scope:   scope,
		subject: rec.Subject,
		data:    rec.AdditionalData,
		refresh: true,
		consume: func(ctx context.Context) error {
			_, err := tr.codes.Pop(ctx, code)
			if errors.Is(err, persist.ErrNotFound) {
				return oautherr.InvalidGrantValue("authorization code")
			}
			return toOAuth(err, "code storage failure")
		},
	}, nil
}

func (tr *TokenResource) passwordGrant(ctx context.Context, form url.Values) (*issuance, error) {
	username, err := param(form, "username", true)
	if err != nil {
		return nil, err
	}
	password, err := param(form, "password", true)
	if err != nil {
		return nil, err
	}
	scope, err := tr.requestedScope(form, true)
	if err != nil {
		return nil, err
	}

	ok, err := tr.cfg.PasswordManager.Authenticate(ctx, username, password)
	if err != nil {
		return nil, toOAuth(err, "password manager failure")
	}
	if !ok {
		return nil, oautherr.InvalidGrantValue("username or password")
	}

	return &issuance{scope: scope, subject: username, refresh: true}, nil
}

func (tr *TokenResource) clientCredentialsGrant(form url.Values) (*issuance, error) {
	scope, err := tr.requestedScope(form, true)
	if err != nil {
		return nil, err
	}
	// No refresh token for client credentials (RFC 6749 §4.4.3).
	return &issuance{scope: scope}, nil
}

func (tr *TokenResource) refreshTokenGrant(ctx context.Context, form url.Values, c *client.Client) (*issuance, error) {
	value, err := param(form, "refresh_token", true)
	if err != nil {
		return nil, err
	}
	if !token.ValidValue(value) {
		return nil, oautherr.InvalidGrantValue("refresh token")
	}

	rt, err := tr.cfg.RefreshTokenStorage.Lookup(ctx, value)
	if errors.Is(err, token.ErrNotFound) {
		return nil, oautherr.InvalidGrantValue("refresh token")
	}
	if err != nil {
		return nil, toOAuth(err, "token storage failure")
	}
	if rt.Kind != token.KindRefresh || rt.ClientID != c.ID || rt.Expired(tr.cfg.Now()) {
		return nil, oautherr.InvalidGrantValue("refresh token")
	}

	scope := rt.Scope
	if requested, ok, err := scopeParam(form); err != nil {
		return nil, err
	} else if ok {
		if !requested.SubsetOf(rt.Scope) {
			return nil, oautherr.InvalidScopeValue(requested.String())
		}
		scope = requested
	}

	iss := &issuance{scope: scope, subject: rt.Subject, data: rt.AdditionalData}
	if tr.cfg.RotateRefreshTokens {
		iss.refresh = true
		iss.retire = value
	}
	return iss, nil
}

func (tr *TokenResource) customGrant(ctx context.Context, r *http.Request, form url.Values, c *client.Client, gt grant.Type, h grant.Handler) (*issuance, error) {
	scope, err := tr.requestedScope(form, false)
	if err != nil {
		return nil, err
	}

	auth, err := h.HandleGrant(ctx, &grant.Request{
		Type:        gt,
		ClientID:    c.ID,
		Scope:       scope,
		Params:      form,
		HTTPRequest: r,
	})
	if err != nil {
		return nil, toOAuth(err, "grant handler failure")
	}
	if auth == nil {
		return nil, oautherr.Server("grant handler returned no authorization")
	}

	granted := scope
	if auth.Scope != nil {
		granted = token.Scope(auth.Scope)
		if !granted.SubsetOf(scope) {
			return nil, oautherr.Server("grant handler granted scope outside the request")
		}
	}

	return &issuance{
		scope:   granted,
		subject: auth.Subject,
		data:    maps.Clone(auth.AdditionalData),
		refresh: auth.IssueRefreshToken,
	}, nil
}
