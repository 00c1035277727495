package txn

import "context"

// Accessor resolves the accessor to use for res at this point of the
// calling chain: the one bound to the active transaction when a frame is
// current, otherwise the resource's default accessor. Pure lookup, never
// fails.
func (m *Manager) Accessor(ctx context.Context, res Resource) Accessor {
	if frame, ok := m.registry.Store(res).Current(ctx); ok && frame.Resource == res {
		return frame.Accessor
	}
	return res.DefaultAccessor()
}

// InTransaction reports whether a transaction is active for res in the
// calling chain.
func (m *Manager) InTransaction(ctx context.Context, res Resource) bool {
	frame, ok := m.registry.Store(res).Current(ctx)
	return ok && frame.Resource == res
}

// ActiveAccessor returns the accessor bound to the active transaction for
// res, or false when the calling chain holds no open transaction on res.
// It consults the process-wide registry, for callers outside the service
// base.
func ActiveAccessor(ctx context.Context, res Resource) (Accessor, bool) {
	if res == nil {
		return nil, false
	}
	if frame, ok := defaultRegistry.Store(res).Current(ctx); ok && frame.Resource == res {
		return frame.Accessor, true
	}
	return nil, false
}

// ResolveAccessor returns the accessor to use for res right now, falling
// back to the default accessor outside a transaction. It consults the
// process-wide registry.
func ResolveAccessor(ctx context.Context, res Resource) Accessor {
	if acc, ok := ActiveAccessor(ctx, res); ok {
		return acc
	}
	return res.DefaultAccessor()
}
