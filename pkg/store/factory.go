package store

import (
	"fmt"
	"strings"

	"github.com/txscope/txscope/pkg/config"
	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/store/mongodb"
	"github.com/txscope/txscope/pkg/store/mysql"
	"github.com/txscope/txscope/pkg/store/postgres"
	"github.com/txscope/txscope/pkg/store/redis"
	"github.com/txscope/txscope/pkg/store/sqlite"
)

// NewResource selects and initializes a storage adapter from config.
// The name becomes the resource identity used in logs and metrics.
func NewResource(name string, cfg config.ResourceConfig, log logger.Logger) (Resource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.ResourceTypePostgres:
		return postgres.NewPostgreSQLAdapter(postgres.Config{
			Name:            name,
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log)
	case config.ResourceTypeMySQL:
		return mysql.NewMySQLAdapter(mysql.Config{
			Name:            name,
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log)
	case config.ResourceTypeSQLite:
		return sqlite.NewAdapter(sqlite.Config{
			Name:         name,
			Path:         cfg.URL,
			QueryTimeout: cfg.QueryTimeout,
		}, log)
	case config.ResourceTypeRedis:
		return redis.NewRedisAdapter(redis.Config{
			Name:             name,
			URL:              cfg.URL,
			MaxConns:         cfg.MaxOpenConns,
			OperationTimeout: cfg.QueryTimeout,
		}, log)
	case config.ResourceTypeMongoDB:
		return mongodb.NewAdapter(mongodb.Config{
			Name:             name,
			URL:              cfg.URL,
			Database:         cfg.DatabaseName,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.QueryTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported resource type %q (supported: postgres, mysql, sqlite, redis, mongodb)", cfg.Type)
	}
}
