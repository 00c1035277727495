// Package postgres provides a PostgreSQL storage adapter that acts as a
// transaction resource.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/txn"
)

// PostgreSQLAdapter provides PostgreSQL database connectivity with
// connection pooling. It implements txn.Resource: transactions opened
// through the boundary manager commit or roll back here.
type PostgreSQLAdapter struct {
	db     *sql.DB
	logger logger.Logger
	config Config
}

// Config holds PostgreSQL connection configuration
type Config struct {
	Name            string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// NewPostgreSQLAdapter creates a new PostgreSQL adapter with connection pooling
func NewPostgreSQLAdapter(cfg Config, log logger.Logger) (*PostgreSQLAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if cfg.Name == "" {
		cfg.Name = "postgres"
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("PostgreSQL connection established",
		"resource", cfg.Name,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	return &PostgreSQLAdapter{
		db:     db,
		logger: log,
		config: cfg,
	}, nil
}

// DB returns the underlying *sql.DB for direct access when needed
func (a *PostgreSQLAdapter) DB() *sql.DB {
	return a.db
}

// Name returns the resource identity used in logs and metrics.
func (a *PostgreSQLAdapter) Name() string {
	return a.config.Name
}

// Kind returns the backend family.
func (a *PostgreSQLAdapter) Kind() txn.Kind {
	return txn.KindPostgres
}

// SupportedIsolation returns nil: PostgreSQL accepts every standard level.
func (a *PostgreSQLAdapter) SupportedIsolation() []txn.Isolation {
	return nil
}

// Begin opens a database transaction at the given isolation level.
func (a *PostgreSQLAdapter) Begin(ctx context.Context, isolation txn.Isolation) (txn.Tx, error) {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation.SQLLevel()})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx}, nil
}

// DefaultAccessor returns the non-transactional connection pool.
func (a *PostgreSQLAdapter) DefaultAccessor() txn.Accessor {
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
func (a *PostgreSQLAdapter) Executor(ctx context.Context) Executor {
	if acc, ok := txn.ActiveAccessor(ctx, a); ok {
		return acc.(Executor)
	}
	return a.db
}

// ExecContext executes a query through the resolved executor.
func (a *PostgreSQLAdapter) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	return a.Executor(ctx).ExecContext(queryCtx, query, args...)
}

// QueryContext executes a query through the resolved executor.
func (a *PostgreSQLAdapter) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	return a.Executor(ctx).QueryContext(queryCtx, query, args...)
}

// QueryRowContext executes a single-row query through the resolved executor.
func (a *PostgreSQLAdapter) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	return a.Executor(ctx).QueryRowContext(queryCtx, query, args...)
}

func (a *PostgreSQLAdapter) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.config.QueryTimeout)
}

// Ping verifies the database connection is alive
func (a *PostgreSQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// HealthCheck verifies the database connection is healthy with a timeout
func (a *PostgreSQLAdapter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Error("PostgreSQL health check failed", "resource", a.config.Name, "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close gracefully closes the database connection and releases the
// adapter's context store.
func (a *PostgreSQLAdapter) Close() error {
	a.logger.Info("closing PostgreSQL connection", "resource", a.config.Name)

	txn.DefaultRegistry().Release(a)

	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close PostgreSQL connection", "error", err)
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}
