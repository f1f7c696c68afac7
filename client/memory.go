package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/oautherr"
)

// Config describes a client in configuration files.
type Config struct {
	ID           string   `yaml:"id"`
	Secret       string   `yaml:"secret"`
	SecretHash   string   `yaml:"secret_hash"`
	RedirectURIs []string `yaml:"redirect_uris"`
	GrantTypes   []string `yaml:"grant_types"`
	Public       bool     `yaml:"public"`
}

// MemoryStorage is an in-memory Storage with bcrypt hashed secrets.
type MemoryStorage struct {
	mu      sync.RWMutex
	clients map[string]*Client
	cost    int

	// dummy is compared against for unknown ids so that lookups of unknown
	// and known clients take comparable time.
	dummy []byte
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithBcryptCost sets the bcrypt cost used by AddWithSecret.
// Default: bcrypt.DefaultCost.
func WithBcryptCost(cost int) MemoryOption {
	return func(s *MemoryStorage) { s.cost = cost }
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		clients: make(map[string]*Client),
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		s.cost = bcrypt.DefaultCost
	}
	s.dummy, _ = bcrypt.GenerateFromPassword([]byte("tokenops-dummy-secret"), s.cost)
	return s
}

// HashSecret returns the bcrypt hash of secret.
func HashSecret(secret string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), cost)
}

// Add registers a validated client.
func (s *MemoryStorage) Add(c *Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[c.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, c.ID)
	}
	s.clients[c.ID] = c.Clone()
	return nil
}

// AddWithSecret hashes secret and registers a confidential client.
func (s *MemoryStorage) AddWithSecret(c *Client, secret string) error {
	hash, err := HashSecret(secret, s.cost)
	if err != nil {
		return fmt.Errorf("client: hash secret: %w", err)
	}
	c = c.Clone()
	c.Public = false
	c.SecretHash = hash
	return s.Add(c)
}

// Load registers clients from configuration.
func (s *MemoryStorage) Load(configs []Config) error {
	for _, cfg := range configs {
		c := &Client{
			ID:           cfg.ID,
			RedirectURIs: cfg.RedirectURIs,
			Public:       cfg.Public,
		}
		for _, g := range cfg.GrantTypes {
			c.GrantTypes = append(c.GrantTypes, grant.Type(g))
		}

		var err error
		switch {
		case cfg.Public:
			err = s.Add(c)
		case cfg.SecretHash != "":
			c.SecretHash = []byte(cfg.SecretHash)
			err = s.Add(c)
		case cfg.Secret != "":
			err = s.AddWithSecret(c, cfg.Secret)
		default:
			err = fmt.Errorf("%w: %q", ErrMissingSecret, cfg.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a client. Idempotent.
func (s *MemoryStorage) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// IDs returns the registered client ids, sorted.
func (s *MemoryStorage) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns a copy of the client record.
func (s *MemoryStorage) Lookup(_ context.Context, id string) (*Client, error) {
	s.mu.RLock()
	c, ok := s.clients[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// Authenticate verifies creds against the stored record.
func (s *MemoryStorage) Authenticate(ctx context.Context, creds Credentials) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, oautherr.Unavailable("", oautherr.WithCause(err))
	}

	c, err := s.Lookup(ctx, creds.ClientID)
	if err != nil {
		if creds.HasSecret {
			_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(creds.Secret))
		}
		return nil, oautherr.InvalidClientID()
	}

	if c.Public {
		if creds.HasSecret {
			return nil, oautherr.InvalidClientAuthentication()
		}
		return c, nil
	}

	if !creds.HasSecret {
		return nil, oautherr.InvalidClientAuthentication()
	}
	if err := bcrypt.CompareHashAndPassword(c.SecretHash, []byte(creds.Secret)); err != nil {
		return nil, oautherr.InvalidClientAuthentication()
	}
	return c, nil
}

var _ Storage = (*MemoryStorage)(nil)
