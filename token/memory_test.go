package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStorage_StoreLookupInvalidate(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStorage(WithClock(clock.Now))
	ctx := context.Background()

	tok := &Token{
		Value:     "access-1",
		Kind:      KindAccess,
		ClientID:  "client",
		Scope:     Scope{"read"},
		ExpiresAt: clock.Now().Add(time.Hour),
	}
	if err := s.Store(ctx, tok); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := s.Lookup(ctx, "access-1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.ClientID != "client" || !got.Scope.Has("read") {
		t.Errorf("Lookup() = %+v", got)
	}

	got.Scope[0] = "mutated"
	again, _ := s.Lookup(ctx, "access-1")
	if again.Scope[0] != "read" {
		t.Error("Lookup should return a copy")
	}

	if err := s.Invalidate(ctx, "access-1"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := s.Lookup(ctx, "access-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() after Invalidate error = %v, want ErrNotFound", err)
	}
	if err := s.Invalidate(ctx, "access-1"); err != nil {
		t.Errorf("second Invalidate() error = %v", err)
	}
}

func TestMemoryStorage_Expiry(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStorage(WithClock(clock.Now))
	ctx := context.Background()

	_ = s.Store(ctx, &Token{Value: "short", ExpiresAt: clock.Now().Add(time.Minute)})
	_ = s.Store(ctx, &Token{Value: "forever"})

	clock.Advance(2 * time.Minute)

	if _, err := s.Lookup(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(expired) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Lookup(ctx, "forever"); err != nil {
		t.Errorf("Lookup(no expiry) error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after lazy removal", s.Len())
	}
}

func TestMemoryStorage_StoreExpiredIsNoop(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStorage(WithClock(clock.Now))

	err := s.Store(context.Background(), &Token{Value: "old", ExpiresAt: clock.Now().Add(-time.Second)})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestMemoryStorage_StoreRejectsInvalid(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	if err := s.Store(ctx, nil); !errors.Is(err, ErrNilToken) {
		t.Errorf("Store(nil) error = %v, want ErrNilToken", err)
	}
	if err := s.Store(ctx, &Token{Value: "bad value"}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Store(bad value) error = %v, want ErrInvalidValue", err)
	}
}

func TestMemoryStorage_HasAccess(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	_ = s.Store(ctx, &Token{Value: "tok", Scope: Scope{"read", "write"}})

	tests := []struct {
		name   string
		value  string
		scopes []string
		want   bool
	}{
		{"no scopes", "tok", nil, true},
		{"single", "tok", []string{"read"}, true},
		{"several", "tok", []string{"read", "write"}, true},
		{"missing", "tok", []string{"admin"}, false},
		{"unknown token", "other", []string{"read"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.HasAccess(ctx, tt.value, tt.scopes...)
			if err != nil {
				t.Fatalf("HasAccess() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasAccess() = %v, want %v", got, tt.want)
			}
		})
	}

	ok, err := s.Contains(ctx, "tok")
	if err != nil || !ok {
		t.Errorf("Contains(tok) = %v, %v", ok, err)
	}
	ok, err = s.Contains(ctx, "other")
	if err != nil || ok {
		t.Errorf("Contains(other) = %v, %v", ok, err)
	}
}

func TestMemoryStorage_Sweep(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStorage(WithClock(clock.Now))
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		_ = s.Store(ctx, &Token{Value: v, ExpiresAt: clock.Now().Add(time.Minute)})
	}
	_ = s.Store(ctx, &Token{Value: "d"})

	clock.Advance(time.Hour)
	if n := s.Sweep(); n != 3 {
		t.Errorf("Sweep() = %d, want 3", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStorage_Concurrent(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := "tok" + string(rune('a'+i%26))
			_ = s.Store(ctx, &Token{Value: v, Scope: Scope{"read"}})
			_, _ = s.HasAccess(ctx, v, "read")
			_ = s.Invalidate(ctx, v)
		}()
	}
	wg.Wait()
}
