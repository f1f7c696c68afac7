package health

import (
	"context"
	"time"

	"github.com/jonwraymond/tokenops/resilience"
)

// Pinger is implemented by token.RedisStorage and persist.RedisStore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageCheckerConfig configures a StorageChecker.
type StorageCheckerConfig struct {
	// SlowThreshold marks a successful but slow ping as degraded.
	// Default: 250ms
	SlowThreshold time.Duration

	// Timeout bounds a single ping.
	// Default: 2 seconds
	Timeout time.Duration
}

// StorageChecker pings a storage backend.
type StorageChecker struct {
	name   string
	target Pinger
	config StorageCheckerConfig
}

// NewStorageChecker creates a checker for target.
func NewStorageChecker(name string, target Pinger, config StorageCheckerConfig) *StorageChecker {
	if config.SlowThreshold <= 0 {
		config.SlowThreshold = 250 * time.Millisecond
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	return &StorageChecker{name: name, target: target, config: config}
}

// Name implements Checker.
func (c *StorageChecker) Name() string { return c.name }

// Check implements Checker.
func (c *StorageChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	err := c.target.Ping(ctx)
	latency := time.Since(start)
	details := map[string]any{"latency_ms": latency.Milliseconds()}

	switch {
	case err != nil:
		return Unhealthy("storage unreachable", err).WithDetails(details)
	case latency > c.config.SlowThreshold:
		return Degraded("storage responding slowly").WithDetails(details)
	default:
		return Healthy("storage reachable").WithDetails(details)
	}
}

// BreakerChecker reports a circuit breaker: closed is healthy, half-open
// degraded and open unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for breaker.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name implements Checker.
func (c *BreakerChecker) Name() string { return c.name }

// Check implements Checker.
func (c *BreakerChecker) Check(context.Context) Result {
	m := c.breaker.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
		"rejected": m.Rejected,
	}
	switch m.State {
	case resilience.StateOpen:
		return Unhealthy("circuit open", ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit probing").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}
