package postgres

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
			Host:     cfg.GetString("host"),
			Port:     cfg.GetString("port"),
			Database: cfg.GetString("database"),
			Username: cfg.GetString("username"),
			Password: cfg.GetString("password"),
			SSLMode:  cfg.GetString("sslmode"),
		})
	default:
		return nil, fmt.Errorf("invalid config type for PostgreSQL store")
	}
}

func (f *Factory) GetType() string {
	return "postgres"
}

func init() {
	store.Register("postgres", &Factory{})
}
