// Package health reports the readiness of the engine's storage backends.
//
// A Checker reports a Result with a Status of Healthy, Degraded or
// Unhealthy. StorageChecker pings a Redis-backed token or code store,
// BreakerChecker reports the state of a circuit breaker guarding one. An
// Aggregator runs several checkers and derives the overall status.
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(health.NewStorageChecker("tokens", redisTokens, health.StorageCheckerConfig{}))
//	agg.Register(health.NewBreakerChecker("tokens-breaker", breakerTokens.Breaker()))
//	health.RegisterHandlers(mux, agg)
package health
