package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCircuitOpen indicates a storage circuit breaker is open.
	ErrCircuitOpen = errors.New("health: circuit open")
)
