// Package resilience provides the circuit breaker that protects remote
// token and code storages.
//
// A CircuitBreaker counts consecutive failures reported by IsFailure. After
// MaxFailures it opens and rejects calls with ErrCircuitOpen until
// ResetTimeout has passed; then up to HalfOpenMaxRequests probe calls are let
// through. A successful probe closes the circuit, a failed one reopens it.
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: 30 * time.Second,
//	})
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return client.Ping(ctx).Err()
//	})
package resilience
