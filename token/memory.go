package token

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage. Expired tokens are removed lazily
// on access or by Sweep.
type MemoryStorage struct {
	mu     sync.RWMutex
	tokens map[string]*Token
	now    func() time.Time
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithClock sets the time source. Default: time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		tokens: make(map[string]*Token),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store persists a copy of tok. Already expired tokens are not stored.
func (s *MemoryStorage) Store(_ context.Context, tok *Token) error {
	if tok == nil {
		return ErrNilToken
	}
	if !ValidValue(tok.Value) {
		return ErrInvalidValue
	}
	if tok.Expired(s.now()) {
		return nil
	}

	s.mu.Lock()
	s.tokens[tok.Value] = tok.Clone()
	s.mu.Unlock()
	return nil
}

// Lookup returns a copy of the stored token.
func (s *MemoryStorage) Lookup(_ context.Context, value string) (*Token, error) {
	s.mu.RLock()
	tok, ok := s.tokens[value]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if tok.Expired(s.now()) {
		s.mu.Lock()
		if current, ok := s.tokens[value]; ok && current == tok {
			delete(s.tokens, value)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return tok.Clone(), nil
}

// Contains reports whether value is stored and unexpired.
func (s *MemoryStorage) Contains(ctx context.Context, value string) (bool, error) {
	return contains(ctx, s, value)
}

// HasAccess reports whether value grants all scopes.
func (s *MemoryStorage) HasAccess(ctx context.Context, value string, scopes ...string) (bool, error) {
	return hasAccess(ctx, s, value, scopes)
}

// Invalidate removes value. Idempotent.
func (s *MemoryStorage) Invalidate(_ context.Context, value string) error {
	s.mu.Lock()
	delete(s.tokens, value)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored tokens, including expired ones not yet
// swept.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Sweep removes expired tokens and returns how many were removed.
func (s *MemoryStorage) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for value, tok := range s.tokens {
		if tok.Expired(now) {
			delete(s.tokens, value)
			removed++
		}
	}
	return removed
}

// contains and hasAccess implement the derived Storage methods on top of
// Lookup.
func contains(ctx context.Context, s Storage, value string) (bool, error) {
	_, err := s.Lookup(ctx, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func hasAccess(ctx context.Context, s Storage, value string, scopes []string) (bool, error) {
	tok, err := s.Lookup(ctx, value)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return tok.Scope.Contains(scopes...), nil
}

var _ Storage = (*MemoryStorage)(nil)
