package config

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/endpoint"
	"github.com/jonwraymond/tokenops/guard"
	"github.com/jonwraymond/tokenops/health"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/resilience"
	"github.com/jonwraymond/tokenops/token"
)

// ClientStorage returns a MemoryStorage holding the configured clients.
func (c *Config) ClientStorage(opts ...client.MemoryOption) (*client.MemoryStorage, error) {
	s := client.NewMemoryStorage(opts...)
	if err := s.Load(c.Clients); err != nil {
		return nil, fmt.Errorf("config: clients: %w", err)
	}
	return s, nil
}

// RedisOptions returns go-redis options for the redis section, or nil when
// Redis is not configured.
func (c *Config) RedisOptions() *redis.Options {
	if !c.Redis.Enabled() {
		return nil
	}
	return &redis.Options{
		Addr:     c.Redis.Address,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// Backends are the token and code storages selected by the configuration.
type Backends struct {
	// Tokens stores access and refresh tokens.
	Tokens token.Storage

	// Codes stores authorization codes.
	Codes persist.Store

	// Checkers report the health of remote backends.
	Checkers []health.Checker

	redis *redis.Client
}

// Close releases the Redis connection, if any.
func (b *Backends) Close() error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Close()
}

// OpenBackends builds Redis-backed storages, with a circuit breaker in front
// of token storage, or memory storages when Redis is not configured.
func (c *Config) OpenBackends(ctx context.Context, logger observe.Logger) (*Backends, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}
	opts := c.RedisOptions()
	if opts == nil {
		return &Backends{Tokens: token.NewMemoryStorage(), Codes: persist.NewMemoryStore()}, nil
	}

	rdb := redis.NewClient(opts)
	redisTokens := token.NewRedisStorage(rdb, token.RedisConfig{Prefix: c.Redis.TokenPrefix})
	codes := persist.NewRedisStore(rdb, c.Redis.CodePrefix)
	if err := redisTokens.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("config: redis %s: %w", opts.Addr, err)
	}

	b := &Backends{
		Tokens: redisTokens,
		Codes:  codes,
		Checkers: []health.Checker{
			health.NewStorageChecker("token-storage", redisTokens, health.StorageCheckerConfig{}),
			health.NewStorageChecker("code-storage", codes, health.StorageCheckerConfig{}),
		},
		redis: rdb,
	}
	if !c.Redis.Breaker.Disabled {
		breaker := token.NewBreakerStorage(redisTokens, resilience.CircuitBreakerConfig{
			MaxFailures:  c.Redis.Breaker.MaxFailures,
			ResetTimeout: c.Redis.Breaker.ResetTimeout,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "token storage circuit changed",
					observe.F("from", from.String()), observe.F("to", to.String()))
			},
		})
		b.Tokens = breaker
		b.Checkers = append(b.Checkers, health.NewBreakerChecker("token-storage-breaker", breaker.Breaker()))
	}
	return b, nil
}

// Endpoint returns base with the server section applied. Collaborators
// (storages, factory, clients) are taken from base.
func (c *Config) Endpoint(base endpoint.Config) (endpoint.Config, error) {
	types, err := c.Server.grantTypes()
	if err != nil {
		return base, err
	}
	scope, err := c.Server.defaultScope()
	if err != nil {
		return base, err
	}

	s := c.Server
	if s.Realm != "" {
		base.Realm = s.Realm
	}
	if s.AccessTokenLifetime != 0 {
		base.AccessTokenLifetime = s.AccessTokenLifetime
	}
	if s.RefreshTokenLifetime != 0 {
		base.RefreshTokenLifetime = s.RefreshTokenLifetime
	}
	if types != nil {
		base.GrantTypes = types
	}
	if scope != nil {
		base.DefaultScope = scope
	}
	base.RotateRefreshTokens = base.RotateRefreshTokens || s.RotateRefreshTokens
	base.RequireScope = base.RequireScope || s.RequireScope
	base.AllowInsecureRequests = base.AllowInsecureRequests || s.AllowInsecure
	return base, nil
}

// Authorizer returns base with the server section applied.
func (c *Config) Authorizer(base endpoint.AuthorizerConfig) (endpoint.AuthorizerConfig, error) {
	scope, err := c.Server.defaultScope()
	if err != nil {
		return base, err
	}
	if scope != nil {
		base.DefaultScope = scope
	}
	if c.Server.CodeLifetime != 0 {
		base.CodeLifetime = c.Server.CodeLifetime
	}
	if c.Server.AccessTokenLifetime != 0 {
		base.AccessTokenLifetime = c.Server.AccessTokenLifetime
	}
	base.AllowInsecureRequests = base.AllowInsecureRequests || c.Server.AllowInsecure
	return base, nil
}

// Guard returns a guard configuration for tokens with the server realm.
func (c *Config) Guard(tokens token.Storage) guard.Config {
	return guard.Config{
		Storage:               tokens,
		Realm:                 c.Server.Realm,
		AllowInsecureRequests: c.Server.AllowInsecure,
	}
}

// Observer builds the observer described by the observe section.
func (c *Config) Observer(ctx context.Context) (observe.Observer, error) {
	return observe.NewObserver(ctx, c.Observe)
}
