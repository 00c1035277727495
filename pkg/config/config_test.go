package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Resources)
}

func TestDefaultResourceConfig(t *testing.T) {
	rc := DefaultResourceConfig()

	assert.Equal(t, 25, rc.MaxOpenConns)
	assert.Equal(t, 5, rc.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, rc.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, rc.ConnMaxIdleTime)
	assert.Equal(t, 5*time.Second, rc.ConnectTimeout)
	assert.Equal(t, 30*time.Second, rc.QueryTimeout)
}
