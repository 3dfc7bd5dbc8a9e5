package sqlite

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
			DatabasePath: cfg.GetString("path"),
		})
	default:
		return nil, fmt.Errorf("invalid config type for SQLite store")
	}
}

func (f *Factory) GetType() string {
	return "sqlite"
}

func init() {
	store.Register("sqlite", &Factory{})
}
