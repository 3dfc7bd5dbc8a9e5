package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.StoreType)
	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, 1000, cfg.MaxMemoryEntries)
	assert.Equal(t, 3600, cfg.DefaultTTLSeconds)
	assert.Equal(t, "5m", cfg.CompactionInterval)
	assert.Equal(t, "@every 10m", cfg.MaintenanceSchedule)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_TYPE", "redis")
	t.Setenv("MAX_MEMORY_ENTRIES", "50")
	t.Setenv("DEFAULT_TTL", "120")
	t.Setenv("COMPACTION_INTERVAL", "30s")
	t.Setenv("REDIS_ADDRESS", "redis.internal:6379")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.StoreType)
	assert.Equal(t, 50, cfg.MaxMemoryEntries)
	assert.Equal(t, 120, cfg.DefaultTTLSeconds)
	assert.Equal(t, "redis.internal:6379", cfg.RedisAddress)
	assert.Equal(t, "3", cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.CompactionWindow())
}

func TestLoad_UnparseableIntFallsBack(t *testing.T) {
	t.Setenv("MAX_MEMORY_ENTRIES", "lots")

	cfg := Load()
	assert.Equal(t, 1000, cfg.MaxMemoryEntries)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Load()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"invalid port", func(c *Config) { c.Port = "not-a-port" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"zero memory entries", func(c *Config) { c.MaxMemoryEntries = 0 }, "MAX_MEMORY_ENTRIES"},
		{"zero default ttl", func(c *Config) { c.DefaultTTLSeconds = 0 }, "DEFAULT_TTL"},
		{"bad compaction interval", func(c *Config) { c.CompactionInterval = "soon" }, "COMPACTION_INTERVAL"},
		{"unknown store type", func(c *Config) { c.StoreType = "etcd" }, "STORE_TYPE"},
		{"sqlite without cache dir", func(c *Config) { c.CacheDir = "" }, "CACHE_DIR"},
		{"postgres without host", func(c *Config) {
			c.StoreType = "postgres"
			c.PostgresHost = ""
		}, "POSTGRES_HOST"},
		{"postgres bad port", func(c *Config) {
			c.StoreType = "postgres"
			c.PostgresPort = "nope"
		}, "POSTGRES_PORT"},
		{"redis bad db", func(c *Config) {
			c.StoreType = "redis"
			c.RedisDB = "16"
		}, "REDIS_DB"},
		{"redis bad pool size", func(c *Config) {
			c.StoreType = "redis"
			c.RedisPoolSize = "0"
		}, "REDIS_POOL_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_PostgresqlAlias(t *testing.T) {
	cfg := Load()
	cfg.StoreType = "postgresql"
	assert.NoError(t, cfg.Validate())
}

func TestCompactionWindow_FallsBackOnBadValue(t *testing.T) {
	cfg := Load()
	cfg.CompactionInterval = "garbage"
	assert.Equal(t, 5*time.Minute, cfg.CompactionWindow())
}
