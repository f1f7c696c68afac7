package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tokenops/oautherr"
)

// DefaultRedisPrefix is the key prefix used when RedisConfig.Prefix is empty.
const DefaultRedisPrefix = "tokenops:token:"

// RedisConfig configures a RedisStorage.
type RedisConfig struct {
	// Prefix is prepended to every key.
	// Default: DefaultRedisPrefix
	Prefix string

	// Now is the time source used for TTLs.
	// Default: time.Now
	Now func() time.Time
}

// RedisStorage stores tokens as JSON values in Redis. Keys expire with the
// token; tokens without expiry are stored without TTL.
//
// Concurrent lookups of the same value are coalesced into one round trip.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
	group  singleflight.Group
}

// NewRedisStorage creates a storage backed by client.
func NewRedisStorage(client redis.UniversalClient, config RedisConfig) *RedisStorage {
	if config.Prefix == "" {
		config.Prefix = DefaultRedisPrefix
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RedisStorage{
		client: client,
		prefix: config.Prefix,
		now:    config.Now,
	}
}

func (s *RedisStorage) key(value string) string {
	return s.prefix + value
}

// Store persists tok with a TTL matching its remaining lifetime.
func (s *RedisStorage) Store(ctx context.Context, tok *Token) error {
	if tok == nil {
		return ErrNilToken
	}
	if !ValidValue(tok.Value) {
		return ErrInvalidValue
	}

	var ttl time.Duration
	if !tok.ExpiresAt.IsZero() {
		ttl = tok.ExpiresIn(s.now())
		if ttl <= 0 {
			return nil
		}
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("token: encode: %w", err)
	}

	if err := s.client.Set(ctx, s.key(tok.Value), data, ttl).Err(); err != nil {
		return backendError("store", err)
	}
	return nil
}

// Lookup fetches and decodes the token stored under value.
func (s *RedisStorage) Lookup(ctx context.Context, value string) (*Token, error) {
	if !ValidValue(value) {
		return nil, ErrNotFound
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared fetch outlives any single caller; each caller still
	// stops waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(value, func() (any, error) {
		data, err := s.client.Get(fetchCtx, s.key(value)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, backendError("lookup", err)
		}

		var tok Token
		if err := json.Unmarshal(data, &tok); err != nil {
			return nil, backendError("decode", err)
		}
		return &tok, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	tok := res.Val.(*Token)
	if tok.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return tok.Clone(), nil
}

// Contains reports whether value is stored and unexpired.
func (s *RedisStorage) Contains(ctx context.Context, value string) (bool, error) {
	return contains(ctx, s, value)
}

// HasAccess reports whether value grants all scopes.
func (s *RedisStorage) HasAccess(ctx context.Context, value string, scopes ...string) (bool, error) {
	return hasAccess(ctx, s, value, scopes)
}

// Invalidate deletes value. Idempotent.
func (s *RedisStorage) Invalidate(ctx context.Context, value string) error {
	if err := s.client.Del(ctx, s.key(value)).Err(); err != nil {
		return backendError("invalidate", err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func backendError(op string, err error) error {
	return oautherr.Server("token storage unavailable",
		oautherr.WithCause(fmt.Errorf("token: redis %s: %w", op, err)))
}

var _ Storage = (*RedisStorage)(nil)
