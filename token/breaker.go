package token

import (
	"context"
	"errors"

	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/resilience"
)

// BreakerStorage guards a Storage with a circuit breaker. Backend faults
// open the circuit; misses and validation errors do not. While the circuit
// is open every call fails with temporarily_unavailable.
type BreakerStorage struct {
	inner   Storage
	breaker *resilience.CircuitBreaker
}

// NewBreakerStorage wraps inner. config.IsFailure is replaced with
// IsBackendFailure unless set.
func NewBreakerStorage(inner Storage, config resilience.CircuitBreakerConfig) *BreakerStorage {
	if config.IsFailure == nil {
		config.IsFailure = IsBackendFailure
	}
	return &BreakerStorage{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(config),
	}
}

// IsBackendFailure reports whether err indicates a storage outage rather
// than a miss, a rejected argument or the caller giving up.
func IsBackendFailure(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNilToken), errors.Is(err, ErrInvalidValue):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	if oe, ok := oautherr.As(err); ok {
		return oe.Status() >= 500
	}
	return true
}

// Breaker returns the underlying circuit breaker.
func (s *BreakerStorage) Breaker() *resilience.CircuitBreaker {
	return s.breaker
}

func (s *BreakerStorage) execute(ctx context.Context, op func(context.Context) error) error {
	err := s.breaker.Execute(ctx, op)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return oautherr.Unavailable("token storage unavailable", oautherr.WithCause(err))
	}
	return err
}

// Store implements Storage.
func (s *BreakerStorage) Store(ctx context.Context, tok *Token) error {
	return s.execute(ctx, func(ctx context.Context) error {
		return s.inner.Store(ctx, tok)
	})
}

// Lookup implements Storage.
func (s *BreakerStorage) Lookup(ctx context.Context, value string) (*Token, error) {
	var tok *Token
	err := s.execute(ctx, func(ctx context.Context) error {
		var err error
		tok, err = s.inner.Lookup(ctx, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Contains implements Storage.
func (s *BreakerStorage) Contains(ctx context.Context, value string) (bool, error) {
	return contains(ctx, s, value)
}

// HasAccess implements Storage.
func (s *BreakerStorage) HasAccess(ctx context.Context, value string, scopes ...string) (bool, error) {
	return hasAccess(ctx, s, value, scopes)
}

// Invalidate implements Storage.
func (s *BreakerStorage) Invalidate(ctx context.Context, value string) error {
	return s.execute(ctx, func(ctx context.Context) error {
		return s.inner.Invalidate(ctx, value)
	})
}

var _ Storage = (*BreakerStorage)(nil)
