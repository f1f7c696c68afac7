package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/tokenops/oautherr"
)

func setupRedisStorage(t *testing.T, clock *fakeClock) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisStorage(rdb, RedisConfig{Now: clock.Now}), mr
}

func TestRedisStorage_StoreLookup(t *testing.T) {
	clock := newFakeClock()
	s, mr := setupRedisStorage(t, clock)
	ctx := context.Background()

	tok := &Token{
		Value:     "access-1",
		Kind:      KindAccess,
		ClientID:  "client",
		Scope:     Scope{"read", "write"},
		Subject:   "alice",
		IssuedAt:  clock.Now(),
		ExpiresAt: clock.Now().Add(time.Hour),
	}
	require.NoError(t, s.Store(ctx, tok))

	assert.True(t, mr.Exists(DefaultRedisPrefix+"access-1"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisPrefix+"access-1"))

	got, err := s.Lookup(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, "client", got.ClientID)
	assert.Equal(t, "alice", got.Subject)
	assert.Equal(t, Scope{"read", "write"}, got.Scope)
	assert.True(t, got.ExpiresAt.Equal(tok.ExpiresAt))

	ok, err := s.HasAccess(ctx, "access-1", "read", "write")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasAccess(ctx, "access-1", "admin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorage_NoExpiry(t *testing.T) {
	clock := newFakeClock()
	s, mr := setupRedisStorage(t, clock)

	require.NoError(t, s.Store(context.Background(), &Token{Value: "forever"}))
	assert.Equal(t, time.Duration(0), mr.TTL(DefaultRedisPrefix+"forever"))
}

func TestRedisStorage_Expiry(t *testing.T) {
	clock := newFakeClock()
	s, mr := setupRedisStorage(t, clock)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, &Token{Value: "short", ExpiresAt: clock.Now().Add(time.Minute)}))

	clock.Advance(2 * time.Minute)
	mr.FastForward(2 * time.Minute)

	_, err := s.Lookup(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Contains(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorage_StoreExpiredIsNoop(t *testing.T) {
	clock := newFakeClock()
	s, mr := setupRedisStorage(t, clock)

	require.NoError(t, s.Store(context.Background(), &Token{Value: "old", ExpiresAt: clock.Now().Add(-time.Second)}))
	assert.False(t, mr.Exists(DefaultRedisPrefix+"old"))
}

func TestRedisStorage_Invalidate(t *testing.T) {
	clock := newFakeClock()
	s, _ := setupRedisStorage(t, clock)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, &Token{Value: "tok"}))
	require.NoError(t, s.Invalidate(ctx, "tok"))
	require.NoError(t, s.Invalidate(ctx, "tok"))

	_, err := s.Lookup(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_LookupInvalidValue(t *testing.T) {
	s, _ := setupRedisStorage(t, newFakeClock())

	_, err := s.Lookup(context.Background(), "not a token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_LookupCanceled(t *testing.T) {
	clock := newFakeClock()
	s, _ := setupRedisStorage(t, clock)
	require.NoError(t, s.Store(context.Background(), &Token{
		Value:     "tok",
		Kind:      KindAccess,
		ClientID:  "client",
		ExpiresAt: clock.Now().Add(time.Hour),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Lookup(ctx, "tok")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsBackendFailure(err))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := s.Lookup(context.Background(), "tok")
			if assert.NoError(t, err) {
				assert.Equal(t, "client", tok.ClientID)
			}
		}()
	}
	wg.Wait()
}

func TestRedisStorage_BackendDown(t *testing.T) {
	s, mr := setupRedisStorage(t, newFakeClock())
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	mr.Close()

	_, err := s.Lookup(ctx, "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, err, oautherr.ServerError)

	err = s.Store(ctx, &Token{Value: "tok"})
	assert.ErrorIs(t, err, oautherr.ServerError)

	assert.Error(t, s.Ping(ctx))
}

func TestRedisStorage_CustomPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStorage(rdb, RedisConfig{Prefix: "app:"})
	require.NoError(t, s.Store(context.Background(), &Token{Value: "tok"}))
	assert.True(t, mr.Exists("app:tok"))
}
