package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/tokenops/token"
)

// CodeKeyPrefix prefixes authorization code keys.
const CodeKeyPrefix = "code:"

// Code is an issued authorization code awaiting exchange.
type Code struct {
	Value          string         `json:"-"`
	ClientID       string         `json:"client_id"`
	RedirectURI    string         `json:"redirect_uri,omitempty"`
	Scope          token.Scope    `json:"scope"`
	Subject        string         `json:"sub,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
	ExpiresAt      time.Time      `json:"exp"`
}

// CodeStore stores authorization codes in a Store.
type CodeStore struct {
	store Store
	now   func() time.Time
}

// NewCodeStore creates a CodeStore. A nil now selects time.Now.
func NewCodeStore(store Store, now func() time.Time) *CodeStore {
	if now == nil {
		now = time.Now
	}
	return &CodeStore{store: store, now: now}
}

// Save stores c until its expiry.
func (s *CodeStore) Save(ctx context.Context, c *Code) error {
	ttl := c.ExpiresAt.Sub(s.now())
	if c.ExpiresAt.IsZero() || ttl <= 0 {
		return ErrExpired
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("persist: encode code: %w", err)
	}
	return s.store.Put(ctx, CodeKeyPrefix+c.Value, data, ttl)
}

// Get returns the code without consuming it.
func (s *CodeStore) Get(ctx context.Context, value string) (*Code, error) {
	data, err := s.store.Get(ctx, CodeKeyPrefix+value)
	if err != nil {
		return nil, err
	}
	return s.decode(value, data)
}

// Pop consumes the code. Only one caller can pop a given code.
func (s *CodeStore) Pop(ctx context.Context, value string) (*Code, error) {
	data, err := s.store.Pop(ctx, CodeKeyPrefix+value)
	if err != nil {
		return nil, err
	}
	return s.decode(value, data)
}

func (s *CodeStore) decode(value string, data []byte) (*Code, error) {
	var c Code
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("persist: decode code: %w", err)
	}
	c.Value = value
	if !c.ExpiresAt.IsZero() && !s.now().Before(c.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &c, nil
}
