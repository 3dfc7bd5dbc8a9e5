package store

import (
	"fmt"
	"path/filepath"

	"lyric-cache/internal/common/errors"
	"lyric-cache/internal/config"
)

// NewStore creates a persistent-tier backend based on configuration. The
// backend package must have been imported so its factory is registered.
func NewStore(cfg *config.Config) (Store, error) {
	var backendConfig BackendConfig

	switch cfg.StoreType {
	case "sqlite":
		backendConfig = GenericConfig{
			"type": "sqlite",
			"path": filepath.Join(cfg.CacheDir, "lyric_cache.db"),
		}

	case "postgres", "postgresql":
		backendConfig = GenericConfig{
			"type":     "postgres",
			"host":     cfg.PostgresHost,
			"port":     cfg.PostgresPort,
			"database": cfg.PostgresDB,
			"username": cfg.PostgresUser,
			"password": cfg.PostgresPassword,
			"sslmode":  cfg.PostgresSSLMode,
		}

	case "redis":
		backendConfig = GenericConfig{
			"type":       "redis",
			"address":    cfg.RedisAddress,
			"password":   cfg.RedisPassword,
			"db":         cfg.RedisDB,
			"pool_size":  cfg.RedisPoolSize,
			"key_prefix": "lyriccache:",
		}

	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported store type: %s", cfg.StoreType))
	}

	storeType := cfg.StoreType
	if storeType == "postgresql" {
		storeType = "postgres"
	}

	return Create(storeType, backendConfig)
}
