// Package config provides configuration management for the lyric cache service.
// It loads configuration from environment variables with sensible defaults and
// validates it before the service starts.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional log file path (default: stdout)
//
// Cache Settings:
//   - CACHE_DIR: Directory for on-disk cache state (default: cache)
//   - MAX_MEMORY_ENTRIES: Maximum in-memory entry count (default: 1000)
//   - DEFAULT_TTL: Default entry lifetime in seconds (default: 3600)
//   - COMPACTION_INTERVAL: Minimum gap between disk compactions (default: 5m)
//   - MAINTENANCE_SCHEDULE: Cron spec for background sweeps (default: @every 10m)
//
// Store Backend:
//   - STORE_TYPE: Persistent store backend - "sqlite", "postgres" or "redis"
//     (default: sqlite)
//   - POSTGRES_HOST: PostgreSQL host (required if using PostgreSQL)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (required if using PostgreSQL)
//   - POSTGRES_USER: PostgreSQL username (required if using PostgreSQL)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the lyric cache service.
// Load it with Load() and validate with Validate() before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Cache settings
	CacheDir            string // Directory holding on-disk cache state
	MaxMemoryEntries    int    // Maximum number of entries held in memory
	DefaultTTLSeconds   int    // Default TTL granted to writes without one
	CompactionInterval  string // Minimum gap between disk compactions (duration)
	MaintenanceSchedule string // Cron spec for background expiry sweeps

	// Persistent store backend
	StoreType string // "sqlite", "postgres" or "redis"

	// PostgreSQL configuration
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// Redis configuration
	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string
}

// Load creates a new Config instance with values loaded from environment
// variables. It does not validate; call Validate() on the result.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CacheDir:            getEnv("CACHE_DIR", "cache"),
		MaxMemoryEntries:    getIntEnv("MAX_MEMORY_ENTRIES", 1000),
		DefaultTTLSeconds:   getIntEnv("DEFAULT_TTL", 3600),
		CompactionInterval:  getEnv("COMPACTION_INTERVAL", "5m"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 10m"),

		StoreType: getEnv("STORE_TYPE", "sqlite"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "lyric_cache"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
	}
}

// getEnv retrieves an environment variable value or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a
// default value when unset or unparseable
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate ensures all required fields are present and all values are valid.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.MaxMemoryEntries < 1 {
		return fmt.Errorf("MAX_MEMORY_ENTRIES must be a positive number")
	}

	if c.DefaultTTLSeconds < 1 {
		return fmt.Errorf("DEFAULT_TTL must be a positive number of seconds")
	}

	if _, err := time.ParseDuration(c.CompactionInterval); err != nil {
		return fmt.Errorf("COMPACTION_INTERVAL must be a valid duration (e.g., '5m', '300s')")
	}

	switch c.StoreType {
	case "sqlite":
		if c.CacheDir == "" {
			return fmt.Errorf("CACHE_DIR is required when using SQLite")
		}

	case "postgres", "postgresql":
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}

	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using Redis")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}

	default:
		return fmt.Errorf("STORE_TYPE must be 'sqlite', 'postgres' or 'redis'")
	}

	return nil
}

// CompactionWindow returns the parsed compaction interval. Validate must have
// been called first.
func (c *Config) CompactionWindow() time.Duration {
	d, err := time.ParseDuration(c.CompactionInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
