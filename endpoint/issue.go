package endpoint

import (
	"context"
	"math"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/token"
)

// issue generates and validates every token before storing any of them.
// A failed refresh token store rolls back the stored access token.
func (tr *TokenResource) issue(ctx context.Context, c *client.Client, gt grant.Type, iss *issuance) (*Response, error) {
	now := tr.cfg.Now()

	access, err := tr.generate(ctx, &token.Request{
		Kind:           token.KindAccess,
		Lifetime:       lifetime(tr.cfg.AccessTokenLifetime),
		ClientID:       c.ID,
		Scope:          iss.scope,
		Subject:        iss.subject,
		GrantType:      gt.String(),
		AdditionalData: iss.data,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	var refresh *token.Token
	if iss.refresh {
		refresh, err = tr.generate(ctx, &token.Request{
			Kind:           token.KindRefresh,
			Lifetime:       lifetime(tr.cfg.RefreshTokenLifetime),
			ClientID:       c.ID,
			Scope:          iss.scope,
			Subject:        iss.subject,
			GrantType:      gt.String(),
			AdditionalData: iss.data,
			Now:            now,
		})
		if err != nil {
			return nil, err
		}
		access.RefreshToken = refresh.Value
	}

	if iss.consume != nil {
		if err := iss.consume(ctx); err != nil {
			return nil, err
		}
	}

	if err := tr.cfg.AccessTokenStorage.Store(ctx, access); err != nil {
		return nil, toOAuth(err, "token storage failure")
	}
	if refresh != nil {
		if err := tr.cfg.RefreshTokenStorage.Store(ctx, refresh); err != nil {
			if rbErr := tr.cfg.AccessTokenStorage.Invalidate(ctx, access.Value); rbErr != nil {
				tr.logger().Error(ctx, "access token rollback failed",
					observe.F("client_id", c.ID), observe.F("error", rbErr))
			}
			return nil, toOAuth(err, "token storage failure")
		}
	}
	if iss.retire != "" {
		if err := tr.cfg.RefreshTokenStorage.Invalidate(ctx, iss.retire); err != nil {
			tr.logger().Warn(ctx, "old refresh token not invalidated",
				observe.F("client_id", c.ID), observe.F("error", err))
		}
	}

	resp := &Response{
		AccessToken: access.Value,
		TokenType:   tr.cfg.AuthScheme,
		Scope:       access.Scope.String(),
	}
	if !access.ExpiresAt.IsZero() {
		resp.ExpiresIn = int64(math.Ceil(access.ExpiresIn(now).Seconds()))
	}
	if refresh != nil {
		resp.RefreshToken = refresh.Value
	}
	return resp, nil
}

// generate calls the factory and validates the result. Invalid factory
// output is an internal fault and always becomes server_error.
func (tr *TokenResource) generate(ctx context.Context, req *token.Request) (*token.Token, error) {
	tok, err := tr.cfg.TokenFactory.GenerateToken(ctx, req)
	if err != nil {
		return nil, toOAuth(err, "token generation failed")
	}
	if tok == nil {
		return nil, oautherr.Server("token generation failed", oautherr.WithCause(token.ErrNilToken))
	}
	if err := token.Finalize(tok, req); err != nil {
		return nil, oautherr.InvalidGeneratedToken(tok.Value, oautherr.WithCause(err))
	}
	return tok, nil
}

func (tr *TokenResource) logger() observe.Logger {
	return tr.cfg.Instrumenter.Logger()
}
