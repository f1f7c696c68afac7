package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/resilience"
	"github.com/jonwraymond/tokenops/token"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestStorageChecker_Redis(t *testing.T) {
	rdb, mr := setupRedis(t)
	checkers := []Checker{
		NewStorageChecker("tokens", token.NewRedisStorage(rdb, token.RedisConfig{}), StorageCheckerConfig{}),
		NewStorageChecker("codes", persist.NewRedisStore(rdb, ""), StorageCheckerConfig{}),
	}

	for _, c := range checkers {
		res := c.Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status, c.Name())
		assert.Contains(t, res.Details, "latency_ms")
	}

	mr.Close()
	for _, c := range checkers {
		res := c.Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status, c.Name())
		assert.Error(t, res.Error)
	}
}

type slowPinger struct{ delay time.Duration }

func (p slowPinger) Ping(ctx context.Context) error {
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestStorageChecker_Latency(t *testing.T) {
	slow := NewStorageChecker("slow", slowPinger{delay: 20 * time.Millisecond}, StorageCheckerConfig{SlowThreshold: time.Millisecond})
	assert.Equal(t, StatusDegraded, slow.Check(context.Background()).Status)

	stuck := NewStorageChecker("stuck", slowPinger{delay: time.Hour}, StorageCheckerConfig{Timeout: 10 * time.Millisecond})
	res := stuck.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.True(t, errors.Is(res.Error, context.DeadlineExceeded))
}

func TestBreakerChecker(t *testing.T) {
	now := time.Unix(0, 0)
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Minute,
		Now:          func() time.Time { return now },
	})
	c := NewBreakerChecker("tokens-breaker", cb)

	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("down") })
	res := c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.ErrorIs(t, res.Error, ErrCircuitOpen)
	assert.Equal(t, "open", res.Details["state"])

	now = now.Add(time.Minute)
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
}
