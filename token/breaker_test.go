package token

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/tokenops/oautherr"
	"github.com/jonwraymond/tokenops/resilience"
)

// flakyStorage fails every call with err when err is set.
type flakyStorage struct {
	*MemoryStorage
	err error
}

func (s *flakyStorage) Lookup(ctx context.Context, value string) (*Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStorage.Lookup(ctx, value)
}

func (s *flakyStorage) Store(ctx context.Context, tok *Token) error {
	if s.err != nil {
		return s.err
	}
	return s.MemoryStorage.Store(ctx, tok)
}

func TestBreakerStorage_PassThrough(t *testing.T) {
	inner := NewMemoryStorage()
	s := NewBreakerStorage(inner, resilience.CircuitBreakerConfig{})
	ctx := context.Background()

	if err := s.Store(ctx, &Token{Value: "tok", Scope: Scope{"read"}}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	ok, err := s.HasAccess(ctx, "tok", "read")
	if err != nil || !ok {
		t.Errorf("HasAccess() = %v, %v", ok, err)
	}
	if err := s.Invalidate(ctx, "tok"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	ok, err = s.Contains(ctx, "tok")
	if err != nil || ok {
		t.Errorf("Contains() after Invalidate = %v, %v", ok, err)
	}
}

func TestBreakerStorage_MissesDoNotOpen(t *testing.T) {
	s := NewBreakerStorage(NewMemoryStorage(), resilience.CircuitBreakerConfig{MaxFailures: 2})
	ctx := context.Background()

	for range 5 {
		if _, err := s.Lookup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
		}
	}
	if got := s.Breaker().State(); got != resilience.StateClosed {
		t.Errorf("State() = %v, want closed", got)
	}
}

func TestBreakerStorage_OpensOnBackendFailure(t *testing.T) {
	backendErr := oautherr.Server("token storage unavailable", oautherr.WithCause(errors.New("connection refused")))
	inner := &flakyStorage{MemoryStorage: NewMemoryStorage(), err: backendErr}
	s := NewBreakerStorage(inner, resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})
	ctx := context.Background()

	for range 2 {
		_, err := s.Lookup(ctx, "tok")
		if !errors.Is(err, oautherr.ServerError) {
			t.Fatalf("Lookup() error = %v, want server_error", err)
		}
	}

	if got := s.Breaker().State(); got != resilience.StateOpen {
		t.Fatalf("State() = %v, want open", got)
	}

	inner.err = nil
	_, err := s.Lookup(ctx, "tok")
	if !errors.Is(err, oautherr.TemporarilyUnavailable) {
		t.Errorf("Lookup() with open circuit error = %v, want temporarily_unavailable", err)
	}
	oe, ok := oautherr.As(err)
	if !ok || oe.Status() != 503 {
		t.Errorf("open circuit should render as 503, got %v", err)
	}
}

func TestIsBackendFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", ErrNotFound, false},
		{"invalid value", ErrInvalidValue, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("lookup: %w", context.DeadlineExceeded), false},
		{"server error", oautherr.Server(""), true},
		{"client error", oautherr.InvalidGrantValue("refresh token"), false},
		{"plain error", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBackendFailure(tt.err); got != tt.want {
				t.Errorf("IsBackendFailure(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
