// Package redis provides a Redis storage adapter that acts as a
// transaction resource.
//
// A transaction boundary maps to a MULTI/EXEC pipeline: commands issued
// through the transaction accessor are queued and applied atomically on
// commit, or discarded on rollback. Because the server executes the whole
// queue at once, the effective isolation is SERIALIZABLE and the adapter
// declares exactly that; reads inside an open transaction do not observe
// the queued writes.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/txn"
)

// RedisAdapter provides Redis connectivity with connection pooling. It
// implements txn.Resource.
type RedisAdapter struct {
	client *redis.Client
	logger logger.Logger
	config Config
}

// Config holds Redis connection configuration
type Config struct {
	Name             string
	URL              string
	MaxConns         int
	OperationTimeout time.Duration
}

// NewRedisAdapter creates a new Redis adapter with connection pooling
func NewRedisAdapter(cfg Config, log logger.Logger) (*RedisAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	if cfg.Name == "" {
		cfg.Name = "redis"
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConns
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = cfg.OperationTimeout
	opts.WriteTimeout = cfg.OperationTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("Redis connection established", "resource", cfg.Name, "max_conns", cfg.MaxConns)

	return &RedisAdapter{
		client: client,
		logger: log,
		config: cfg,
	}, nil
}

// Client returns the underlying *redis.Client for direct access when needed
func (a *RedisAdapter) Client() *redis.Client {
	return a.client
}

// Name returns the resource identity used in logs and metrics.
func (a *RedisAdapter) Name() string {
	return a.config.Name
}

// Kind returns the backend family.
func (a *RedisAdapter) Kind() txn.Kind {
	return txn.KindRedis
}

// SupportedIsolation declares the single level MULTI/EXEC provides.
func (a *RedisAdapter) SupportedIsolation() []txn.Isolation {
	return []txn.Isolation{txn.IsolationSerializable}
}

// Begin opens a MULTI/EXEC pipeline. The isolation level is negotiated to
// SERIALIZABLE before this is called and carries no further effect.
func (a *RedisAdapter) Begin(ctx context.Context, isolation txn.Isolation) (txn.Tx, error) {
	return &pipelineTx{pipe: a.client.TxPipeline()}, nil
}

// DefaultAccessor returns the non-transactional client.
func (a *RedisAdapter) DefaultAccessor() txn.Accessor {
	return a.client
}

type pipelineTx struct {
	pipe redis.Pipeliner
}

func (t *pipelineTx) Accessor() txn.Accessor { return t.pipe }

func (t *pipelineTx) Commit(ctx context.Context) error {
	if _, err := t.pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to exec pipeline: %w", err)
	}
	return nil
}

func (t *pipelineTx) Rollback(ctx context.Context) error {
	t.pipe.Discard()
	return nil
}

// Cmdable resolves the command interface for the calling chain: the queued
// pipeline inside an active boundary, the client outside one.
func (a *RedisAdapter) Cmdable(ctx context.Context) redis.Cmdable {
	if acc, ok := txn.ActiveAccessor(ctx, a); ok {
		return acc.(redis.Cmdable)
	}
	return a.client
}

// HealthCheck verifies the Redis connection is healthy with a timeout
func (a *RedisAdapter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := a.client.Ping(ctx).Err(); err != nil {
		a.logger.Error("Redis health check failed", "resource", a.config.Name, "error", err)
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}

// Close gracefully closes the Redis connection and releases the adapter's
// context store.
func (a *RedisAdapter) Close() error {
	a.logger.Info("closing Redis connection", "resource", a.config.Name)

	txn.DefaultRegistry().Release(a)

	if err := a.client.Close(); err != nil {
		a.logger.Error("failed to close Redis connection", "error", err)
		return fmt.Errorf("failed to close redis connection: %w", err)
	}

	return nil
}
