// Package mongodb provides a MongoDB storage adapter that acts as a
// transaction resource.
//
// A transaction boundary maps to a server session with an open
// multi-document transaction. Operations issued through the transaction
// accessor must bind the session into their context with
// Accessor.Context; the server applies its own snapshot semantics and
// ignores SQL-style isolation levels, so the adapter declares no
// restricted set.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/txn"
)

// Adapter provides MongoDB connectivity. It implements txn.Resource.
type Adapter struct {
	client   *mongo.Client
	database string
	logger   logger.Logger
	config   Config
	mu       sync.RWMutex
	closed   bool
}

// Config holds MongoDB adapter configuration.
type Config struct {
	Name             string
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// NewAdapter initializes a MongoDB adapter and verifies connectivity.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.Name == "" {
		cfg.Name = "mongodb"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB connection established", "resource", cfg.Name, "database", cfg.Database)
	return &Adapter{
		client:   client,
		database: cfg.Database,
		logger:   log,
		config:   cfg,
	}, nil
}

// Client returns the underlying *mongo.Client.
func (a *Adapter) Client() *mongo.Client {
	return a.client
}

// Database returns the configured database handle.
func (a *Adapter) Database() *mongo.Database {
	return a.client.Database(a.database)
}

// Collection returns a collection handle on the configured database.
func (a *Adapter) Collection(name string) *mongo.Collection {
	return a.Database().Collection(name)
}

// Name returns the resource identity used in logs and metrics.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Kind returns the backend family.
func (a *Adapter) Kind() txn.Kind {
	return txn.KindMongoDB
}

// SupportedIsolation returns nil: the server applies snapshot semantics
// regardless of the requested level.
func (a *Adapter) SupportedIsolation() []txn.Isolation {
	return nil
}

// Begin starts a session with an open multi-document transaction.
func (a *Adapter) Begin(ctx context.Context, isolation txn.Isolation) (txn.Tx, error) {
	sess, err := a.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return &sessionTx{
		accessor: &Accessor{db: a.Database(), session: sess},
		session:  sess,
	}, nil
}

// DefaultAccessor returns a session-less accessor on the configured
// database.
func (a *Adapter) DefaultAccessor() txn.Accessor {
	return &Accessor{db: a.Database()}
}

// Accessor is the handle resolved for MongoDB operations. Inside a
// transaction it carries the session; callers bind it into their context
// with Context before issuing driver calls.
type Accessor struct {
	db      *mongo.Database
	session mongo.Session
}

// Database returns the database handle.
func (acc *Accessor) Database() *mongo.Database {
	return acc.db
}

// Collection returns a collection handle.
func (acc *Accessor) Collection(name string) *mongo.Collection {
	return acc.db.Collection(name)
}

// Context binds the accessor's session into ctx so driver calls join the
// open transaction. Outside a transaction ctx is returned unchanged.
func (acc *Accessor) Context(ctx context.Context) context.Context {
	if acc.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, acc.session)
}

type sessionTx struct {
	accessor *Accessor
	session  mongo.Session
}

func (t *sessionTx) Accessor() txn.Accessor { return t.accessor }

func (t *sessionTx) Commit(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	if err := t.session.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *sessionTx) Rollback(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	if err := t.session.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("failed to abort transaction: %w", err)
	}
	return nil
}

// Resolve returns the accessor for the calling chain: session-bound inside
// an active boundary, session-less otherwise.
func (a *Adapter) Resolve(ctx context.Context) *Accessor {
	if acc, ok := txn.ActiveAccessor(ctx, a); ok {
		return acc.(*Accessor)
	}
	return &Accessor{db: a.Database()}
}

// Ping verifies the MongoDB connection is alive.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return fmt.Errorf("mongodb adapter is closed")
	}
	return a.client.Ping(ctx, readpref.Primary())
}

// HealthCheck verifies the MongoDB connection is healthy with a timeout.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("MongoDB health check failed", "resource", a.config.Name, "error", err)
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client and releases the adapter's context store.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	txn.DefaultRegistry().Release(a)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}
