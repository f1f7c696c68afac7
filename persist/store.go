package persist

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a key.
const MaxKeyLength = 512

// Sentinel errors for store operations.
var (
	ErrNotFound   = errors.New("persist: not found")
	ErrInvalidKey = errors.New("persist: key is invalid")
	ErrKeyTooLong = errors.New("persist: key exceeds max length")
	ErrExpired    = errors.New("persist: record already expired")
)

// Store persists single-use records.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Atomicity: for a given key, at most one concurrent Pop succeeds.
// - Context: methods should honor cancellation/deadlines.
// - Errors: Get and Pop return ErrNotFound on miss or expiry.
type Store interface {
	// Put stores value under key. A non-positive ttl stores without expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value without consuming it.
	Get(ctx context.Context, key string) ([]byte, error)

	// Pop returns the value and deletes it.
	Pop(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Idempotent.
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks that key is usable by every Store.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
