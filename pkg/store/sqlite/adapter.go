// Package sqlite provides an embedded SQLite storage adapter that acts as
// a transaction resource.
//
// SQLite only honors the READ UNCOMMITTED and SERIALIZABLE isolation
// levels, so the adapter declares a restricted set and the boundary
// manager's negotiation falls back to SERIALIZABLE for anything in
// between.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/txn"
)

// Adapter provides embedded SQLite connectivity. It implements
// txn.Resource.
type Adapter struct {
	db     *sql.DB
	logger logger.Logger
	config Config
}

// Config holds SQLite adapter configuration.
type Config struct {
	Name string
	// Path is the database file path, or ":memory:" for an in-memory
	// database.
	Path         string
	QueryTimeout time.Duration
}

// NewAdapter opens an embedded SQLite database.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if cfg.Name == "" {
		cfg.Name = "sqlite"
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps an in-memory database alive and avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("SQLite database opened", "resource", cfg.Name, "path", cfg.Path)

	return &Adapter{
		db:     db,
		logger: log,
		config: cfg,
	}, nil
}

// DB returns the underlying *sql.DB for direct access when needed
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Name returns the resource identity used in logs and metrics.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Kind returns the backend family.
func (a *Adapter) Kind() txn.Kind {
	return txn.KindSQLite
}

// SupportedIsolation declares the two levels SQLite actually implements.
func (a *Adapter) SupportedIsolation() []txn.Isolation {
	return []txn.Isolation{txn.IsolationReadUncommitted, txn.IsolationSerializable}
}

// Begin opens a database transaction at the given isolation level.
func (a *Adapter) Begin(ctx context.Context, isolation txn.Isolation) (txn.Tx, error) {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation.SQLLevel()})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx}, nil
}

// DefaultAccessor returns the non-transactional connection pool.
func (a *Adapter) DefaultAccessor() txn.Accessor {
	return a.db
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Accessor() txn.Accessor { return t.tx }

func (t *sqlTx) Commit(ctx context.Context) error { return t.tx.Commit() }

func (t *sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

// Executor is the query surface shared by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Executor resolves the executor for the calling chain: the transaction
// opened by the active boundary when one exists, the pool otherwise.
func (a *Adapter) Executor(ctx context.Context) Executor {
	if acc, ok := txn.ActiveAccessor(ctx, a); ok {
		return acc.(Executor)
	}
	return a.db
}

// ExecContext executes a query through the resolved executor.
func (a *Adapter) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	return a.Executor(ctx).ExecContext(queryCtx, query, args...)
}

// QueryContext executes a query through the resolved executor.
func (a *Adapter) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	return a.Executor(ctx).QueryContext(queryCtx, query, args...)
}

// QueryRowContext executes a single-row query through the resolved executor.
func (a *Adapter) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	return a.Executor(ctx).QueryRowContext(queryCtx, query, args...)
}

func (a *Adapter) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.config.QueryTimeout)
}

// HealthCheck verifies the database is reachable.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Error("SQLite health check failed", "resource", a.config.Name, "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close closes the database and releases the adapter's context store.
func (a *Adapter) Close() error {
	a.logger.Info("closing SQLite database", "resource", a.config.Name)

	txn.DefaultRegistry().Release(a)

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
