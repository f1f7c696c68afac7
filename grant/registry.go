package grant

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps extension grant types to their handlers.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Register rejects built-in, malformed and duplicate identifiers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Type]Handler)}
}

// Register adds a handler for t.
func (r *Registry) Register(t Type, h Handler) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	if t.IsBuiltin() {
		return fmt.Errorf("%w: %q", ErrBuiltinType, t)
	}
	if h == nil {
		return ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[t]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, t)
	}
	r.handlers[t] = h
	return nil
}

// RegisterFunc adds a function handler for t.
func (r *Registry) RegisterFunc(t Type, fn func(ctx context.Context, req *Request) (*Authorization, error)) error {
	if fn == nil {
		return ErrNilHandler
	}
	return r.Register(t, HandlerFunc(fn))
}

// Lookup returns the handler registered for t.
func (r *Registry) Lookup(t Type) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// Unregister removes the handler for t. Idempotent.
func (r *Registry) Unregister(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, t)
}

// Types returns the registered identifiers, sorted.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
