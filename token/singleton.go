package token

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jonwraymond/tokenops/observe"
)

// Registry holds the process-wide Storage singleton.
//
// Contract:
// - Concurrency: safe for concurrent use; registration is an atomic
// check-and-set.
// - Errors: Get returns ErrNoSingleton before the first registration.
type Registry struct {
	mu      sync.Mutex
	storage Storage
	logger  observe.Logger
}

// NewRegistry creates an empty registry. A nil logger selects a stderr
// logger at warn level.
func NewRegistry(logger observe.Logger) *Registry {
	if logger == nil {
		logger = observe.NewLogger("warn")
	}
	return &Registry{logger: logger}
}

// DefaultRegistry is the process-wide registry used when no registry is
// configured explicitly.
var DefaultRegistry = NewRegistry(nil)

// SetLogger replaces the logger used for mismatch warnings.
func (r *Registry) SetLogger(logger observe.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Register makes s the singleton if none is registered yet and returns the
// effective singleton. Registering a different instance afterwards logs a
// warning and leaves the first instance in place.
func (r *Registry) Register(ctx context.Context, s Storage) Storage {
	if s == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.storage
	}

	r.mu.Lock()
	if r.storage == nil {
		r.storage = s
		r.mu.Unlock()
		return s
	}
	current, logger := r.storage, r.logger
	r.mu.Unlock()

	if !sameInstance(current, s) {
		logger.Warn(ctx, "token storage singleton already registered; ignoring different instance",
			observe.F("registered", fmt.Sprintf("%T", current)),
			observe.F("ignored", fmt.Sprintf("%T", s)),
		)
	}
	return current
}

// Get returns the singleton.
func (r *Registry) Get() (Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storage == nil {
		return nil, ErrNoSingleton
	}
	return r.storage, nil
}

// Reset clears the singleton. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.storage = nil
	r.mu.Unlock()
}

// RegisterSingleton registers s in DefaultRegistry.
func RegisterSingleton(ctx context.Context, s Storage) Storage {
	return DefaultRegistry.Register(ctx, s)
}

// Singleton returns the storage registered in DefaultRegistry.
func Singleton() (Storage, error) {
	return DefaultRegistry.Get()
}

// ResetSingleton clears DefaultRegistry. Intended for tests.
func ResetSingleton() {
	DefaultRegistry.Reset()
}

// sameInstance compares storages by identity. Values of non-comparable
// dynamic types are never considered identical.
func sameInstance(a, b Storage) (same bool) {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
