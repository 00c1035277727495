package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a new ViperLoader.
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (e.g., "TXSCOPE")
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// Load loads configuration with precedence: ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyResourceDefaults(&cfg)

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyResourceDefaults fills unset pool fields with the module defaults.
func applyResourceDefaults(cfg *Config) {
	base := DefaultResourceConfig()
	for name, rc := range cfg.Resources {
		if rc.MaxOpenConns == 0 {
			rc.MaxOpenConns = base.MaxOpenConns
		}
		if rc.MaxIdleConns == 0 {
			rc.MaxIdleConns = base.MaxIdleConns
		}
		if rc.ConnMaxLifetime == 0 {
			rc.ConnMaxLifetime = base.ConnMaxLifetime
		}
		if rc.ConnMaxIdleTime == 0 {
			rc.ConnMaxIdleTime = base.ConnMaxIdleTime
		}
		if rc.ConnectTimeout == 0 {
			rc.ConnectTimeout = base.ConnectTimeout
		}
		if rc.QueryTimeout == 0 {
			rc.QueryTimeout = base.QueryTimeout
		}
		cfg.Resources[name] = rc
	}
}

// Validate checks the configuration for wiring defects.
func (l *ViperLoader) Validate(cfg *Config) error {
	var errs []error

	if _, err := parseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	for name, rc := range cfg.Resources {
		switch strings.ToLower(strings.TrimSpace(rc.Type)) {
		case ResourceTypePostgres, ResourceTypeMySQL, ResourceTypeSQLite, ResourceTypeRedis, ResourceTypeMongoDB:
		default:
			errs = append(errs, fmt.Errorf("resource %q: unsupported type %q", name, rc.Type))
			continue
		}
		if rc.URL == "" {
			errs = append(errs, fmt.Errorf("resource %q: url is required", name))
		}
		if rc.Type == ResourceTypeMongoDB && rc.DatabaseName == "" {
			errs = append(errs, fmt.Errorf("resource %q: database_name is required for mongodb", name))
		}
	}

	return errors.Join(errs...)
}

func parseLevel(level string) (string, error) {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return level, nil
	default:
		return "", fmt.Errorf("invalid logging.level: %s", level)
	}
}
