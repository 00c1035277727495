package txn

import "context"

// Kind identifies the backend family of a resource.
type Kind string

// Backend kind constants
const (
	// KindPostgres represents a PostgreSQL backend
	KindPostgres Kind = "postgres"
	// KindMySQL represents a MySQL backend
	KindMySQL Kind = "mysql"
	// KindSQLite represents an embedded SQLite backend
	KindSQLite Kind = "sqlite"
	// KindRedis represents a Redis backend
	KindRedis Kind = "redis"
	// KindMongoDB represents a MongoDB backend
	KindMongoDB Kind = "mongodb"
	// KindMemory represents an in-process backend, used mainly in tests
	KindMemory Kind = "memory"
)

// Accessor is the handle service code uses to talk to a backend: a
// connection pool outside a transaction, a transaction-bound handle inside
// one. It is opaque to the engine; backends expose typed helpers to
// recover the concrete type.
type Accessor = any

// Resource identifies one logical storage backend, for example one
// database connection pool. Resource equality is reference identity:
// the engine compares the interface values it is handed, so adapters
// must register with pointer receivers.
type Resource interface {
	// Name returns a stable human-readable identifier used in logs and metrics.
	Name() string

	// Kind returns the backend family.
	Kind() Kind

	// SupportedIsolation returns the restricted set of isolation levels
	// the backend supports, or nil when any level may be requested.
	SupportedIsolation() []Isolation

	// Begin opens a transaction, at the given isolation level unless it
	// is IsolationDefault.
	Begin(ctx context.Context, isolation Isolation) (Tx, error)

	// DefaultAccessor returns the non-transactional accessor.
	DefaultAccessor() Accessor
}

// Tx is an open backend transaction.
type Tx interface {
	// Accessor returns the accessor bound to this transaction.
	Accessor() Accessor

	// Commit makes the transaction's effects permanent.
	Commit(ctx context.Context) error

	// Rollback discards the transaction's effects.
	Rollback(ctx context.Context) error
}
