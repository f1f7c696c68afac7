package endpoint

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordManager verifies resource owner credentials for the password
// grant.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a false result means bad credentials; errors mean the check
// could not be performed. *oautherr.Error values are rendered unchanged.
type PasswordManager interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

// PasswordManagerFunc adapts a function to PasswordManager.
type PasswordManagerFunc func(ctx context.Context, username, password string) (bool, error)

// Authenticate calls f.
func (f PasswordManagerFunc) Authenticate(ctx context.Context, username, password string) (bool, error) {
	return f(ctx, username, password)
}

// ErrUnknownUser is returned by MemoryPasswordManager.Remove for unknown
// users.
var ErrUnknownUser = errors.New("endpoint: unknown user")

// MemoryPasswordManager keeps bcrypt password hashes in memory.
type MemoryPasswordManager struct {
	mu    sync.RWMutex
	users map[string][]byte
	cost  int
	dummy []byte
}

// NewMemoryPasswordManager creates an empty manager. A cost of zero selects
// bcrypt.DefaultCost.
func NewMemoryPasswordManager(cost int) *MemoryPasswordManager {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("tokenops-dummy"), cost)
	return &MemoryPasswordManager{
		users: make(map[string][]byte),
		cost:  cost,
		dummy: dummy,
	}
}

// Add stores username with the hash of password, replacing any existing
// entry.
func (m *MemoryPasswordManager) Add(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.users[username] = hash
	m.mu.Unlock()
	return nil
}

// Remove deletes username.
func (m *MemoryPasswordManager) Remove(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; !ok {
		return ErrUnknownUser
	}
	delete(m.users, username)
	return nil
}

// Authenticate implements PasswordManager. Unknown users cost the same
// bcrypt comparison as known ones.
func (m *MemoryPasswordManager) Authenticate(_ context.Context, username, password string) (bool, error) {
	m.mu.RLock()
	hash, ok := m.users[username]
	m.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(m.dummy, []byte(password))
		return false, nil
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil, nil
}

var _ PasswordManager = (*MemoryPasswordManager)(nil)
