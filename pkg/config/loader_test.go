package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewViperLoader("", "TXSCOPE").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if len(cfg.Resources) != 0 {
		t.Fatalf("expected no resources, got %d", len(cfg.Resources))
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: text
resources:
  primary:
    type: postgres
    url: postgres://localhost:5432/app?sslmode=disable
  cache:
    type: redis
    url: redis://localhost:6379/0
    query_timeout: 2s
`)

	cfg, err := NewViperLoader(path, "TXSCOPE").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q, want debug", cfg.Logging.Level)
	}

	primary, ok := cfg.Resources["primary"]
	if !ok {
		t.Fatal("missing resource primary")
	}
	if primary.Type != ResourceTypePostgres {
		t.Fatalf("primary.type = %q", primary.Type)
	}
	// Pool defaults are applied to unset fields.
	if primary.MaxOpenConns != 25 || primary.QueryTimeout != 30*time.Second {
		t.Fatalf("defaults not applied: %+v", primary)
	}

	cache := cfg.Resources["cache"]
	if cache.QueryTimeout != 2*time.Second {
		t.Fatalf("cache.query_timeout = %v, want 2s", cache.QueryTimeout)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unsupported type", `
resources:
  primary:
    type: oracle
    url: oracle://x
`},
		{"missing url", `
resources:
  primary:
    type: postgres
`},
		{"mongodb without database", `
resources:
  docs:
    type: mongodb
    url: mongodb://localhost:27017
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.content)
			if _, err := NewViperLoader(path, "TXSCOPE").Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "logging:\n  level: info\n")
	t.Setenv("TXSCOPE_LOGGING_LEVEL", "error")

	cfg, err := NewViperLoader(path, "TXSCOPE").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Fatalf("logging.level = %q, want error (env override)", cfg.Logging.Level)
	}
}
