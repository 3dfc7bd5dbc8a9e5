// Package store defines the persistent tier of the lyric cache: a durable
// key/value store surviving process restarts, keyed by the derived lyrics
// fingerprint. Backends are selected by configuration and registered through
// the factory in this package.
package store

import (
	"context"
)

// Record is a persisted cache entry.
type Record struct {
	Key          string  `json:"key"`
	Value        []byte  `json:"value"`         // JSON-encoded analysis result
	CreatedAt    float64 `json:"timestamp"`     // seconds since epoch
	TTLSeconds   int     `json:"ttl"`           // lifetime granted at insertion
	AccessCount  int     `json:"access_count"`  // reads since creation, starts at 1
	LastAccessed float64 `json:"last_accessed"` // 0 until the first read
}

// Expired reports whether the record's TTL has lapsed at the given time.
func (r *Record) Expired(now float64) bool {
	return now-r.CreatedAt >= float64(r.TTLSeconds)
}

// AccessStats aggregates access counters across all stored records.
type AccessStats struct {
	TotalAccesses int     `json:"total_accesses"`
	AvgAccesses   float64 `json:"avg_accesses_per_entry"`
	MaxAccesses   int     `json:"max_accesses"`
}

// Store is the persistent tier contract. Implementations assume a
// single-writer process; concurrent stat updates are last-writer-wins.
type Store interface {
	// Get returns the record for key if present and not expired. An expired
	// row is deleted as a side effect and reported as absent. A hit updates
	// the stored access statistics in the same operation; the returned
	// record carries the pre-increment values.
	Get(ctx context.Context, key string, now float64) (*Record, error)

	// Put inserts or fully replaces the record by key.
	Put(ctx context.Context, rec *Record) error

	// UpdateStats propagates memory-tier access bookkeeping back to disk.
	UpdateStats(ctx context.Context, key string, accessCount int, lastAccessed float64) error

	// Delete removes the record for key; absent keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteExpired removes every record whose TTL has lapsed and returns
	// the number removed.
	DeleteExpired(ctx context.Context, now float64) (int, error)

	// TrimLeastUsed keeps the `keep` records with the highest access counts
	// and deletes the rest.
	TrimLeastUsed(ctx context.Context, keep int) error

	// TopByAccess returns up to limit records ordered by access count
	// descending, skipping expired rows.
	TopByAccess(ctx context.Context, limit int, now float64) ([]*Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// GetAccessStats returns aggregate access counters.
	GetAccessStats(ctx context.Context) (*AccessStats, error)

	// Clear removes all records unconditionally.
	Clear(ctx context.Context) error

	Health() error
	Close() error
}

// BackendConfig is implemented by backend-specific configuration types.
type BackendConfig interface {
	Validate() error
	GetType() string
}

// Factory creates a Store from a backend configuration.
type Factory interface {
	Create(config BackendConfig) (Store, error)
	GetType() string
}

// GenericConfig is a map-based BackendConfig used by the store factory to
// hand configuration to a registered backend without importing it.
type GenericConfig map[string]interface{}

func (gc GenericConfig) Validate() error {
	return nil
}

func (gc GenericConfig) GetType() string {
	if t, ok := gc["type"].(string); ok {
		return t
	}
	return ""
}

// GetString returns the string value for key, or "" when absent.
func (gc GenericConfig) GetString(key string) string {
	if v, ok := gc[key].(string); ok {
		return v
	}
	return ""
}
