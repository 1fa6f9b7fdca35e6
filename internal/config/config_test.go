package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.VolatileEntries)
	assert.Equal(t, int64(100<<20), cfg.Cache.PersistentBytes)
	assert.Equal(t, 2*time.Second, cfg.Fetch.HostInterval)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.Resolve.Deadline)
	assert.Equal(t, 4, cfg.Resolve.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.validate(), "defaults must validate")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero volatile bound", func(c *Config) { c.Cache.VolatileEntries = 0 }},
		{"negative host interval", func(c *Config) { c.Fetch.HostInterval = -time.Second }},
		{"zero request timeout", func(c *Config) { c.Fetch.RequestTimeout = 0 }},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }},
		{"zero workers", func(c *Config) { c.Resolve.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ECON_CACHE_DIR", dir)
	t.Setenv("ECON_SERVER_PORT", "9090")
	t.Setenv("ECON_CACHE_TTL", "30m")
	t.Setenv("ECON_FETCH_MAX_RETRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Fetch.MaxRetries)
	assert.Equal(t, dir, cfg.Cache.Dir)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("ECON_CACHE_DIR", t.TempDir())
	t.Setenv("ECON_SERVER_PORT", "0")

	_, err := Load()
	assert.Error(t, err)
}
