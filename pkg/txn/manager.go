// Package txn manages transaction boundaries for service-layer code.
//
// A unit of work wrapped by a Manager runs inside a backend transaction
// that commits when the work succeeds and rolls back when it fails. The
// transaction-bound accessor travels implicitly through context.Context,
// so nested calls never need a transaction handle in their signatures:
// they either join the enclosing transaction (Required, the default) or
// open an independent one (RequiresNew), and plain data access resolves
// the right accessor through the same context.
package txn

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/txscope/txscope/pkg/observability/logger"
)

// ErrResourceUnbound indicates a service or manager call was wired without
// a resource. This is a configuration defect, not a runtime condition:
// it is returned immediately and must not be retried.
var ErrResourceUnbound = errors.New("txn: resource is not bound")

// Propagation selects how a wrapped operation relates to an enclosing
// transaction on the same resource.
type Propagation int

// Propagation behaviors
const (
	// Required joins the enclosing transaction when one is active,
	// otherwise starts a new one. This is the default.
	Required Propagation = iota
	// RequiresNew always starts an independent transaction, suspending
	// the enclosing frame for the duration of the call.
	RequiresNew
)

// String returns the canonical name of the propagation behavior.
func (p Propagation) String() string {
	switch p {
	case Required:
		return "required"
	case RequiresNew:
		return "requires_new"
	default:
		return fmt.Sprintf("propagation(%d)", int(p))
	}
}

// Options configures one transaction boundary.
type Options struct {
	// Isolation is the requested isolation level. It is negotiated
	// against the backend's capabilities; see ResolveIsolation.
	Isolation Isolation
	// Propagation decides join-versus-new. Zero value is Required.
	Propagation Propagation
}

// Recorder receives transaction lifecycle events, labelled by resource
// name. The metrics package provides a Prometheus-backed implementation.
type Recorder interface {
	TxBegun(resource string)
	TxCommitted(resource string)
	TxRolledBack(resource string)
	TxJoined(resource string)
}

// Manager demarcates transaction boundaries around units of work.
type Manager struct {
	registry *Registry
	logger   logger.Logger
	recorder Recorder
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for transaction lifecycle events.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) { m.logger = log }
}

// WithRecorder sets the metrics recorder for transaction outcomes.
func WithRecorder(rec Recorder) Option {
	return func(m *Manager) { m.recorder = rec }
}

// WithRegistry sets the context-store registry. Managers sharing a
// registry observe each other's frames; the default manager uses the
// process-wide registry.
func WithRegistry(reg *Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// NewManager creates a transaction boundary manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry: defaultRegistry,
		logger:   logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// defaultManager backs the package-level helpers.
var defaultManager = NewManager()

// Run executes fn inside a transaction boundary on res.
//
// When a frame for res is already current and opts does not demand
// RequiresNew, fn joins the enclosing transaction: it runs with the
// caller's context unchanged and commit or rollback stays with the outer
// boundary. An error returned by a joined fn therefore rolls back the
// enclosing transaction, which is precisely what Required means.
//
// Otherwise Run begins a transaction at the negotiated isolation level,
// activates a frame for the dynamic extent of fn, and commits on a nil
// return. Any error from fn rolls the transaction back and is returned
// verbatim; a panic rolls back and is re-raised; cancellation of ctx
// while the transaction is open still rolls back before the cancellation
// error propagates. In every case exactly one begin pairs with exactly
// one commit or rollback, and the prior frame is back in place before
// Run returns.
func (m *Manager) Run(ctx context.Context, res Resource, opts Options, fn func(ctx context.Context) error) error {
	if res == nil {
		return ErrResourceUnbound
	}

	store := m.registry.Store(res)
	if frame, ok := store.Current(ctx); ok && frame.Resource == res && opts.Propagation != RequiresNew {
		if m.recorder != nil {
			m.recorder.TxJoined(res.Name())
		}
		return fn(ctx)
	}

	isolation := ResolveIsolation(res, opts.Isolation)
	tx, err := res.Begin(ctx, isolation)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on %s: %w", res.Name(), err)
	}
	if m.recorder != nil {
		m.recorder.TxBegun(res.Name())
	}

	txID := uuid.NewString()
	log := m.logger.With("resource", res.Name(), "tx_id", txID)
	log.Debug("transaction started", "isolation", isolation.String(), "propagation", opts.Propagation.String())

	txCtx := store.Activate(ctx, &Frame{Resource: res, Accessor: tx.Accessor()})

	defer func() {
		if p := recover(); p != nil {
			m.rollback(ctx, res, tx, log, "panic", p)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		m.rollback(ctx, res, tx, log, "error", err)
		return err
	}

	// The chain may have been cancelled after fn observed its last
	// suspension point; the open transaction must still be released.
	if err := ctx.Err(); err != nil {
		m.rollback(ctx, res, tx, log, "cancellation", err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction on %s: %w", res.Name(), err)
	}
	if m.recorder != nil {
		m.recorder.TxCommitted(res.Name())
	}
	log.Debug("transaction committed")
	return nil
}

// rollback releases tx even when ctx is already cancelled.
func (m *Manager) rollback(ctx context.Context, res Resource, tx Tx, log logger.Logger, cause string, detail any) {
	if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
		log.Error("failed to rollback transaction", "cause", cause, "detail", detail, "rollback_error", rbErr)
	} else {
		log.Debug("transaction rolled back", "cause", cause)
	}
	if m.recorder != nil {
		m.recorder.TxRolledBack(res.Name())
	}
}

// Transactional wraps fn in a transaction boundary on res, returning an
// operation with the behavior of Run. This is the decoration primitive
// for service methods.
func (m *Manager) Transactional(res Resource, opts Options, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return m.Run(ctx, res, opts, fn)
	}
}

// Run executes fn inside a transaction boundary using the default manager.
func Run(ctx context.Context, res Resource, opts Options, fn func(ctx context.Context) error) error {
	return defaultManager.Run(ctx, res, opts, fn)
}

// Transactional wraps fn using the default manager.
func Transactional(res Resource, opts Options, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return defaultManager.Transactional(res, opts, fn)
}

// RunIn executes fn inside a transaction boundary on res and returns its
// value. On rollback the zero value of T is returned alongside the error.
func RunIn[T any](ctx context.Context, m *Manager, res Resource, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := m.Run(ctx, res, opts, func(ctx context.Context) error {
		var fnErr error
		out, fnErr = fn(ctx)
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
