// Package token defines issued tokens, their storage and their generation.
//
// A Storage persists tokens and answers scope checks (HasAccess). A Factory
// generates token values; Finalize validates a generated token before the
// engine stores it. The process-wide storage singleton lives in a Registry:
// the first registration wins and later registrations of a different
// instance only log a warning.
//
// Implementations: MemoryStorage, RedisStorage (go-redis) and BreakerStorage,
// which guards another Storage with a circuit breaker. Factories: UUIDFactory
// (opaque values) and JWTFactory (signed structured values).
package token
