package redis

import (
	"fmt"

	"lyric-cache/internal/store"
)

type Factory struct{}

func (f *Factory) Create(config store.BackendConfig) (store.Store, error) {
	switch cfg := config.(type) {
	case *Config:
		return NewAdapter(cfg)
	case store.GenericConfig:
		return NewAdapter(&Config{
			Address:   cfg.GetString("address"),
			Password:  cfg.GetString("password"),
			DB:        cfg.GetString("db"),
			PoolSize:  cfg.GetString("pool_size"),
			KeyPrefix: cfg.GetString("key_prefix"),
		})
	default:
		return nil, fmt.Errorf("invalid config type for Redis store")
	}
}

func (f *Factory) GetType() string {
	return "redis"
}

func init() {
	store.Register("redis", &Factory{})
}
