package endpoint

import (
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/token"
)

// Default lifetimes.
const (
	DefaultAccessTokenLifetime = time.Hour
	DefaultCodeLifetime        = 10 * time.Minute
)

// Config configures a TokenResource.
type Config struct {
	// TokenFactory generates access and refresh tokens. Required.
	TokenFactory token.Factory

	// AccessTokenStorage persists access tokens. It is registered as the
	// process-wide token storage singleton. Required.
	AccessTokenStorage token.Storage

	// RefreshTokenStorage persists refresh tokens.
	// Default: AccessTokenStorage
	RefreshTokenStorage token.Storage

	// CodeStore holds authorization codes issued by an Authorizer. Required
	// when the authorization_code grant is enabled.
	CodeStore persist.Store

	// ClientStorage authenticates clients. Required.
	ClientStorage client.Storage

	// PasswordManager verifies resource owner credentials. Setting it
	// enables the password grant by default.
	PasswordManager PasswordManager

	// GrantTypes lists the enabled built-in grant types. implicit is
	// ignored because it never reaches the token endpoint.
	// Default: client_credentials, refresh_token, plus authorization_code
	// when CodeStore is set and password when PasswordManager is set.
	GrantTypes []grant.Type

	// CustomGrants dispatches extension grant types.
	CustomGrants *grant.Registry

	// DefaultScope is used when a request carries no scope parameter.
	DefaultScope token.Scope

	// RequireScope rejects password and client_credentials requests that
	// carry no scope when DefaultScope is empty.
	RequireScope bool

	// AccessTokenLifetime is the access token lifetime. Negative values
	// issue tokens that never expire.
	// Default: 1 hour
	AccessTokenLifetime time.Duration

	// RefreshTokenLifetime is the refresh token lifetime. Zero issues
	// refresh tokens that never expire.
	RefreshTokenLifetime time.Duration

	// RotateRefreshTokens issues a new refresh token on every refresh and
	// invalidates the old one.
	RotateRefreshTokens bool

	// AllowInsecureRequests accepts requests without TLS. For development
	// only.
	AllowInsecureRequests bool

	// Realm is added to WWW-Authenticate challenges.
	Realm string

	// AuthScheme is the token type and challenge scheme.
	// Default: "Bearer"
	AuthScheme string

	// Registry holds the token storage singleton.
	// Default: token.DefaultRegistry
	Registry *token.Registry

	// Observer supplies tracing, metrics and logging. Ignored when
	// Instrumenter is set.
	Observer observe.Observer

	// Instrumenter wraps every request.
	// Default: built from Observer, or a logging-only instrumenter.
	Instrumenter *observe.Instrumenter

	// Logger is used when neither Observer nor Instrumenter is set.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Now is the clock.
	// Default: time.Now
	Now func() time.Time
}

func (c *Config) applyDefaults() error {
	if c.RefreshTokenStorage == nil {
		c.RefreshTokenStorage = c.AccessTokenStorage
	}
	if c.AccessTokenLifetime == 0 {
		c.AccessTokenLifetime = DefaultAccessTokenLifetime
	}
	if c.AuthScheme == "" {
		c.AuthScheme = oautherr.DefaultAuthScheme
	}
	if c.Registry == nil {
		c.Registry = token.DefaultRegistry
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Instrumenter == nil {
		if c.Observer != nil {
			instr, err := observe.InstrumenterFromObserver(c.Observer)
			if err != nil {
				return fmt.Errorf("endpoint: instrumenter: %w", err)
			}
			c.Instrumenter = instr
		} else {
			c.Instrumenter = observe.NewInstrumenter(nil, nil, c.Logger)
		}
	}
	if c.GrantTypes == nil {
		c.GrantTypes = []grant.Type{grant.ClientCredentials, grant.RefreshToken}
		if c.CodeStore != nil {
			c.GrantTypes = append(c.GrantTypes, grant.AuthorizationCode)
		}
		if c.PasswordManager != nil {
			c.GrantTypes = append(c.GrantTypes, grant.Password)
		}
	}
	c.GrantTypes = slices.DeleteFunc(slices.Clone(c.GrantTypes), func(t grant.Type) bool {
		return t == grant.Implicit
	})
	return nil
}

// Validate checks required collaborators and grant type consistency.
func (c *Config) Validate() error {
	switch {
	case c.TokenFactory == nil:
		return ErrMissingTokenFactory
	case c.AccessTokenStorage == nil:
		return ErrMissingTokenStorage
	case c.ClientStorage == nil:
		return ErrMissingClientStorage
	}
	for _, t := range c.GrantTypes {
		switch t {
		case grant.Password:
			if c.PasswordManager == nil {
				return ErrMissingPasswordManager
			}
		case grant.AuthorizationCode:
			if c.CodeStore == nil {
				return ErrMissingCodeStore
			}
		case grant.ClientCredentials, grant.RefreshToken, grant.Implicit:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownGrantType, t)
		}
	}
	return nil
}

// lifetime maps a configured lifetime to a factory lifetime, where zero
// means no expiry.
func lifetime(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
