// Package cache implements the two-tier result cache for lyric analysis:
// a bounded in-memory hot tier in front of a durable persistent store.
// Lookups hit memory first and fall back to the store; writes land in both.
// The persistent tier is a best-effort optimization: its failures degrade to
// cache misses, never to caller-visible errors.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lyric-cache/internal/common/errors"
	"lyric-cache/internal/common/logging"
	"lyric-cache/internal/store"
)

const (
	// DefaultMaxMemoryEntries bounds the memory tier when unconfigured.
	DefaultMaxMemoryEntries = 1000
	// DefaultTTLSeconds is the lifetime granted to writes without a TTL.
	DefaultTTLSeconds = 3600
	// DefaultCompactionWindow is the minimum gap between disk compactions.
	DefaultCompactionWindow = 5 * time.Minute

	// diskRetentionFactor sizes the persistent tier relative to the memory
	// tier during compaction.
	diskRetentionFactor = 10
)

// Config holds cache construction parameters.
type Config struct {
	MaxMemoryEntries  int
	DefaultTTLSeconds int
	CompactionWindow  time.Duration
}

// Cache is the single entry point coordinating both tiers. Construct it with
// New and close it when done; it owns no global state.
type Cache struct {
	store  store.Store
	mem    *memoryTier
	logger logging.Logger

	maxMemoryEntries  int
	defaultTTLSeconds int
	compactionWindow  time.Duration

	mu             sync.Mutex // guards lastCompaction
	lastCompaction time.Time

	now func() float64
}

// New creates a cache over the given persistent store and seeds the memory
// tier with the most-accessed unexpired entries so a restart keeps hot
// entries servable without disk I/O.
func New(st store.Store, cfg Config, logger logging.Logger) *Cache {
	if cfg.MaxMemoryEntries <= 0 {
		cfg.MaxMemoryEntries = DefaultMaxMemoryEntries
	}
	if cfg.DefaultTTLSeconds <= 0 {
		cfg.DefaultTTLSeconds = DefaultTTLSeconds
	}
	if cfg.CompactionWindow <= 0 {
		cfg.CompactionWindow = DefaultCompactionWindow
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	c := &Cache{
		store:             st,
		mem:               newMemoryTier(),
		logger:            logger,
		maxMemoryEntries:  cfg.MaxMemoryEntries,
		defaultTTLSeconds: cfg.DefaultTTLSeconds,
		compactionWindow:  cfg.CompactionWindow,
		lastCompaction:    time.Now(),
		now:               func() float64 { return float64(time.Now().UnixNano()) / float64(time.Second) },
	}

	c.loadHotEntries(context.Background())
	return c
}

// loadHotEntries seeds the memory tier from the persistent store, up to the
// tier's configured capacity.
func (c *Cache) loadHotEntries(ctx context.Context) {
	records, err := c.store.TopByAccess(ctx, c.maxMemoryEntries, c.now())
	if err != nil {
		c.logger.Warn("hot cache load failed", logging.Err(err))
		return
	}

	for _, rec := range records {
		c.mem.Put(rec.Key, rec)
	}

	if len(records) > 0 {
		c.logger.Info("hot cache loaded", logging.Int("entries", len(records)))
	}
}

// Get returns the cached analysis result for the given lyrics and options,
// or absent. Misses caused by expiry or storage failures are
// indistinguishable from true absence.
func (c *Cache) Get(ctx context.Context, lyrics string, options Options) (map[string]interface{}, bool) {
	key := DeriveKey(lyrics, options)
	now := c.now()

	if value, accessCount, ok := c.mem.Touch(key, now); ok {
		result, err := decodeValue(value)
		if err != nil {
			// Malformed payload: purge it from both tiers and miss.
			c.logger.Warn("dropping undecodable cache entry", logging.String("key", key), logging.Err(err))
			c.mem.Remove(key)
			c.deleteStored(ctx, key)
			return nil, false
		}

		// Propagate memory-tier bookkeeping to disk, best effort.
		if err := c.store.UpdateStats(ctx, key, accessCount, now); err != nil {
			c.logger.Warn("cache stats propagation failed", logging.String("key", key), logging.Err(err))
		}
		return result, true
	}

	// Lazy removal of an expired resident entry.
	c.mem.Remove(key)

	rec, err := c.store.Get(ctx, key, now)
	if err != nil {
		c.logger.Warn("persistent cache read failed", logging.String("key", key), logging.Err(err))
		return nil, false
	}
	if rec == nil {
		return nil, false
	}

	result, err := decodeValue(rec.Value)
	if err != nil {
		c.logger.Warn("dropping undecodable cache entry", logging.String("key", key), logging.Err(err))
		c.deleteStored(ctx, key)
		return nil, false
	}

	// Entries found only on disk are served without promotion; the memory
	// tier is populated through Set and the startup hot load.
	return result, true
}

// Set caches an analysis result under the derived key, overwriting any
// previous entry. A ttlSeconds of 0 uses the configured default; negative
// values are rejected. Persistent-tier failures are logged, not returned.
func (c *Cache) Set(ctx context.Context, lyrics string, result map[string]interface{}, options Options, ttlSeconds int) error {
	if ttlSeconds < 0 {
		return errors.ValidationError("ttl must not be negative").WithContext("ttl", ttlSeconds)
	}
	if ttlSeconds == 0 {
		ttlSeconds = c.defaultTTLSeconds
	}

	value, err := json.Marshal(result)
	if err != nil {
		return errors.SerializationError("result is not JSON-serializable", err)
	}

	key := DeriveKey(lyrics, options)
	now := c.now()

	rec := &store.Record{
		Key:          key,
		Value:        value,
		CreatedAt:    now,
		TTLSeconds:   ttlSeconds,
		AccessCount:  1,
		LastAccessed: 0,
	}

	// Each tier owns its own record: a concurrent read may bump the memory
	// copy's stats while the store write is still reading this one.
	memRec := *rec
	c.mem.Put(key, &memRec)

	if err := c.store.Put(ctx, rec); err != nil {
		c.logger.Warn("persistent cache write failed", logging.String("key", key), logging.Err(err))
	}

	c.cleanup(ctx, now)
	return nil
}

// cleanup runs the write-amortized maintenance pass: TTL sweep of the memory
// tier, capacity eviction, and a time-windowed disk compaction.
func (c *Cache) cleanup(ctx context.Context, now float64) {
	c.mem.RemoveExpired(now)

	if evicted := c.mem.EvictOldest(c.maxMemoryEntries); evicted > 0 {
		c.logger.Debug("memory tier evicted entries", logging.Int("evicted", evicted))
	}

	c.mu.Lock()
	due := time.Since(c.lastCompaction) >= c.compactionWindow
	if due {
		c.lastCompaction = time.Now()
	}
	c.mu.Unlock()

	if due {
		c.compactStore(ctx, now)
	}
}

// compactStore bounds persistent-tier growth: expired rows go first, then
// everything beyond a multiple of the memory tier's capacity.
func (c *Cache) compactStore(ctx context.Context, now float64) {
	removed, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		c.logger.Warn("persistent cache expiry sweep failed", logging.Err(err))
	} else if removed > 0 {
		c.logger.Debug("persistent cache expired entries removed", logging.Int("removed", removed))
	}

	if err := c.store.TrimLeastUsed(ctx, c.maxMemoryEntries*diskRetentionFactor); err != nil {
		c.logger.Warn("persistent cache trim failed", logging.Err(err))
	}
}

// ClearExpired removes expired entries from both tiers and returns the total
// number removed.
func (c *Cache) ClearExpired(ctx context.Context) int {
	now := c.now()
	removed := c.mem.RemoveExpired(now)

	storeRemoved, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		c.logger.Warn("persistent cache expiry sweep failed", logging.Err(err))
		return removed
	}
	return removed + storeRemoved
}

// ClearAll empties both tiers unconditionally.
func (c *Cache) ClearAll(ctx context.Context) {
	c.mem.Clear()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("persistent cache clear failed", logging.Err(err))
	}
}

// Maintain runs the full background maintenance pass regardless of the
// compaction window. Intended for scheduled invocation.
func (c *Cache) Maintain(ctx context.Context) int {
	removed := c.ClearExpired(ctx)

	if err := c.store.TrimLeastUsed(ctx, c.maxMemoryEntries*diskRetentionFactor); err != nil {
		c.logger.Warn("persistent cache trim failed", logging.Err(err))
	}

	c.mu.Lock()
	c.lastCompaction = time.Now()
	c.mu.Unlock()

	return removed
}

// Stats reports cache performance statistics. Persistent-tier failures
// degrade to a partial report.
func (c *Cache) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"memory_cache_size":   c.mem.Len(),
		"cache_hit_potential": c.hitPotential(),
	}

	count, err := c.store.Count(ctx)
	if err != nil {
		c.logger.Warn("persistent cache count failed", logging.Err(err))
		stats["error"] = err.Error()
		return stats
	}
	stats["persistent_cache_size"] = count

	access, err := c.store.GetAccessStats(ctx)
	if err != nil {
		c.logger.Warn("persistent cache access stats failed", logging.Err(err))
		stats["error"] = err.Error()
		return stats
	}

	stats["total_accesses"] = access.TotalAccesses
	stats["avg_accesses_per_entry"] = access.AvgAccesses
	stats["max_accesses"] = access.MaxAccesses
	return stats
}

func (c *Cache) hitPotential() float64 {
	max := c.maxMemoryEntries
	if max < 1 {
		max = 1
	}
	potential := float64(c.mem.Len()) / float64(max)
	if potential > 1.0 {
		potential = 1.0
	}
	return potential
}

// Close releases the persistent store.
func (c *Cache) Close() error {
	return c.store.Close()
}

func (c *Cache) deleteStored(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("persistent cache delete failed", logging.String("key", key), logging.Err(err))
	}
}

// decodeValue materializes a stored payload into a fresh map, so callers
// never share mutable state with the tiers.
func decodeValue(value []byte) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(value, &result); err != nil {
		return nil, errors.SerializationError("malformed cached value", err)
	}
	return result, nil
}
