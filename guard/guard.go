package guard

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/token"
)

// Config configures a Guard.
type Config struct {
	// Storage holds the access tokens.
	// Default: the singleton of Registry, resolved per request.
	Storage token.Storage

	// Registry supplies the singleton when Storage is nil.
	// Default: token.DefaultRegistry
	Registry *token.Registry

	// Realm is added to WWW-Authenticate challenges.
	Realm string

	// AuthScheme is the challenge scheme.
	// Default: "Bearer"
	AuthScheme string

	// AllowInsecureRequests accepts requests without TLS.
	AllowInsecureRequests bool

	// Instrumenter wraps every check.
	// Default: a logging-only instrumenter using Logger.
	Instrumenter *observe.Instrumenter

	// Logger is used when Instrumenter is nil.
	Logger observe.Logger
}

// Guard checks bearer tokens.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: OAuth2 failures are *oautherr.Error; token.ErrNoSingleton is
// returned unwrapped when no storage is available.
type Guard struct {
	cfg Config
}

// New creates a Guard.
func New(config Config) *Guard {
	if config.Registry == nil {
		config.Registry = token.DefaultRegistry
	}
	if config.AuthScheme == "" {
		config.AuthScheme = oautherr.DefaultAuthScheme
	}
	if config.Instrumenter == nil {
		config.Instrumenter = observe.NewInstrumenter(nil, nil, config.Logger)
	}
	return &Guard{cfg: config}
}

var defaultGuard = New(Config{})

// RequireScope checks r against the process-wide storage singleton.
func RequireScope(r *http.Request, scopes ...string) (*token.Token, error) {
	return defaultGuard.RequireScope(r, scopes...)
}

// RequireScope returns the access token presented with r if it grants every
// scope in scopes. Storage.HasAccess makes the decision. Callers serving a
// request whose token came from the access_token query parameter should
// send Cache-Control: private; Middleware does this.
func (g *Guard) RequireScope(r *http.Request, scopes ...string) (*token.Token, error) {
	op := &observe.Operation{Endpoint: observe.EndpointGuard}

	var tok *token.Token
	err := g.cfg.Instrumenter.Observe(r.Context(), op, func(ctx context.Context) error {
		var err error
		tok, err = g.check(ctx, r, scopes, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (g *Guard) check(ctx context.Context, r *http.Request, scopes []string, op *observe.Operation) (*token.Token, error) {
	if !g.cfg.AllowInsecureRequests && r.TLS == nil {
		return nil, g.annotate(oautherr.InsecureConnection())
	}

	storage, err := g.storage()
	if err != nil {
		return nil, err
	}

	values, perr := bearerTokens(r)
	if perr != nil {
		return nil, g.annotate(perr)
	}
	switch len(values) {
	case 0:
		return nil, g.annotate(oautherr.NoToken(scopes))
	case 1:
	default:
		return nil, g.annotate(oautherr.MultipleTokens(scopes))
	}

	value := values[0]
	if !token.ValidValue(value) {
		return nil, g.annotate(oautherr.BadToken(scopes))
	}

	tok, err := storage.Lookup(ctx, value)
	if err != nil {
		return nil, g.storageError(err, scopes)
	}

	// Refresh tokens and codes may share the access token storage.
	if tok.Kind != token.KindAccess {
		return nil, g.annotate(oautherr.BadToken(scopes))
	}
	op.ClientID = tok.ClientID

	// The storage decides access; Lookup only identifies the token.
	ok, err := storage.HasAccess(ctx, value, scopes...)
	if err != nil {
		return nil, g.storageError(err, scopes)
	}
	if !ok {
		return nil, g.annotate(oautherr.MissingScope(scopes))
	}
	return tok, nil
}

func (g *Guard) storageError(err error, scopes []string) error {
	if errors.Is(err, token.ErrNotFound) {
		return g.annotate(oautherr.BadToken(scopes))
	}
	if oe, ok := oautherr.As(err); ok {
		return g.annotate(oe)
	}
	return oautherr.Server("token storage failure", oautherr.WithCause(err))
}

func (g *Guard) storage() (token.Storage, error) {
	if g.cfg.Storage != nil {
		return g.cfg.Storage, nil
	}
	return g.cfg.Registry.Get()
}

func (g *Guard) annotate(oe *oautherr.Error) *oautherr.Error {
	var opts []oautherr.Option
	if g.cfg.Realm != "" && oe.Realm() == "" {
		opts = append(opts, oautherr.WithRealm(g.cfg.Realm))
	}
	if g.cfg.AuthScheme != oautherr.DefaultAuthScheme && oe.AuthScheme() == oautherr.DefaultAuthScheme {
		opts = append(opts, oautherr.WithAuthScheme(g.cfg.AuthScheme))
	}
	if len(opts) == 0 {
		return oe
	}
	return oe.Annotate(opts...)
}
