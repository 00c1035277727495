package txn

import (
	"context"
	"sync"
)

// Frame is the state made visible to a call chain while a transaction is
// open: the accessor bound to that transaction and the resource it belongs
// to. Frames are immutable; a nested activation builds a new frame and
// never touches the one it shadows.
type Frame struct {
	Resource Resource
	Accessor Accessor
}

// ContextStore tracks the currently active frame for one resource.
//
// Propagation rides on context.Context: Activate derives a context carrying
// the frame, and every function reached with that context, however deep and
// across every await-like boundary, observes it through Current. Contexts
// are immutable and per call chain, so two chains interleaved on the same
// scheduler can never observe each other's frames, and the prior frame is
// restored simply by the derived context going out of scope.
//
// The store's own pointer is the context key, which keeps the frames of
// different resources in the same context strictly apart.
type ContextStore struct {
	res Resource
}

// Activate returns a context in which frame is current for the store's
// resource, for the full dynamic extent of whatever runs under it.
func (s *ContextStore) Activate(ctx context.Context, frame *Frame) context.Context {
	return context.WithValue(ctx, s, frame)
}

// Current returns the frame visible at this point of the calling chain,
// or false when no transaction is active for the resource.
func (s *ContextStore) Current(ctx context.Context) (*Frame, bool) {
	frame, ok := ctx.Value(s).(*Frame)
	return frame, ok
}

// Registry maps resources to their context stores. Stores are created
// lazily, exactly one per resource identity, and live until the resource
// releases itself. The registry holds no backend state of its own, only
// the per-resource context keys.
type Registry struct {
	mu     sync.RWMutex
	stores map[Resource]*ContextStore
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[Resource]*ContextStore)}
}

// Store returns the context store for res, creating it on first use.
// Repeated calls with the same resource return the same store.
func (r *Registry) Store(res Resource) *ContextStore {
	r.mu.RLock()
	store, ok := r.stores[res]
	r.mu.RUnlock()
	if ok {
		return store
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores[res]; ok {
		return store
	}
	store = &ContextStore{res: res}
	r.stores[res] = store
	return store
}

// Release drops the store for res. Adapters call this when they close so
// the registry does not outlive the resources it indexes.
func (r *Registry) Release(res Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, res)
}

// defaultRegistry backs the package-level helpers.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by the default
// manager and the package-level accessor helpers.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
