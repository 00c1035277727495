// Package config loads module configuration with precedence ENV > file > defaults.
package config

import "time"

// Resource type constants
const (
	// ResourceTypePostgres represents PostgreSQL
	ResourceTypePostgres = "postgres"
	// ResourceTypeMySQL represents MySQL
	ResourceTypeMySQL = "mysql"
	// ResourceTypeSQLite represents embedded SQLite
	ResourceTypeSQLite = "sqlite"
	// ResourceTypeRedis represents Redis
	ResourceTypeRedis = "redis"
	// ResourceTypeMongoDB represents MongoDB
	ResourceTypeMongoDB = "mongodb"
)

// Config is the root configuration structure.
type Config struct {
	Logging   LoggingConfig             `mapstructure:"logging"`
	Resources map[string]ResourceConfig `mapstructure:"resources"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ResourceConfig describes one storage backend. The map key under
// `resources` becomes the resource name used in logs and metrics.
type ResourceConfig struct {
	Type            string        `mapstructure:"type"`
	URL             string        `mapstructure:"url"`
	DatabaseName    string        `mapstructure:"database_name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Resources: map[string]ResourceConfig{},
	}
}

// DefaultResourceConfig returns pool defaults applied to resources that
// leave the corresponding fields unset.
func DefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		QueryTimeout:    30 * time.Second,
	}
}
