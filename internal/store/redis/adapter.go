// Package redis implements the persistent cache tier on Redis. Entry payloads
// live under per-key strings; two sorted sets index keys by access count and
// by expiry time so the top-N, trim and sweep queries stay cheap.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"lyric-cache/internal/store"
)

type Adapter struct {
	rdb    *redis.Client
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redis config: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.dbNumber(),
		PoolSize: config.poolSize(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Adapter{
		rdb:    rdb,
		config: config,
	}, nil
}

func (a *Adapter) entryKey(key string) string {
	return a.config.KeyPrefix + "entry:" + key
}

func (a *Adapter) accessIndex() string {
	return a.config.KeyPrefix + "by_access"
}

func (a *Adapter) expiryIndex() string {
	return a.config.KeyPrefix + "by_expiry"
}

func (a *Adapter) Get(ctx context.Context, key string, now float64) (*store.Record, error) {
	data, err := a.rdb.Get(ctx, a.entryKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	rec := &store.Record{}
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	if rec.Expired(now) {
		if err := a.removeKeys(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to delete expired entry: %w", err)
		}
		return nil, nil
	}

	// Bump access bookkeeping; the caller gets the pre-increment record.
	bumped := *rec
	bumped.AccessCount = rec.AccessCount + 1
	bumped.LastAccessed = now
	if err := a.writeRecord(ctx, &bumped); err != nil {
		return nil, fmt.Errorf("failed to update access stats: %w", err)
	}

	return rec, nil
}

func (a *Adapter) Put(ctx context.Context, rec *store.Record) error {
	if err := a.writeRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (a *Adapter) writeRecord(ctx context.Context, rec *store.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	pipe := a.rdb.TxPipeline()
	pipe.Set(ctx, a.entryKey(rec.Key), data, 0)
	pipe.ZAdd(ctx, a.accessIndex(), &redis.Z{Score: float64(rec.AccessCount), Member: rec.Key})
	pipe.ZAdd(ctx, a.expiryIndex(), &redis.Z{Score: rec.CreatedAt + float64(rec.TTLSeconds), Member: rec.Key})

	_, err = pipe.Exec(ctx)
	return err
}

func (a *Adapter) UpdateStats(ctx context.Context, key string, accessCount int, lastAccessed float64) error {
	data, err := a.rdb.Get(ctx, a.entryKey(key)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache entry: %w", err)
	}

	rec := &store.Record{}
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return fmt.Errorf("failed to decode cache entry: %w", err)
	}

	rec.AccessCount = accessCount
	rec.LastAccessed = lastAccessed
	if err := a.writeRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to update cache stats: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.removeKeys(ctx, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (a *Adapter) removeKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	entryKeys := make([]string, len(keys))
	members := make([]interface{}, len(keys))
	for i, key := range keys {
		entryKeys[i] = a.entryKey(key)
		members[i] = key
	}

	pipe := a.rdb.TxPipeline()
	pipe.Del(ctx, entryKeys...)
	pipe.ZRem(ctx, a.accessIndex(), members...)
	pipe.ZRem(ctx, a.expiryIndex(), members...)

	_, err := pipe.Exec(ctx)
	return err
}

func (a *Adapter) DeleteExpired(ctx context.Context, now float64) (int, error) {
	keys, err := a.rdb.ZRangeByScore(ctx, a.expiryIndex(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%f", now),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to find expired entries: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	if err := a.removeKeys(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	return len(keys), nil
}

func (a *Adapter) TrimLeastUsed(ctx context.Context, keep int) error {
	count, err := a.rdb.ZCard(ctx, a.accessIndex()).Result()
	if err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}

	excess := int(count) - keep
	if excess <= 0 {
		return nil
	}

	// The lowest-scored members are the least used.
	keys, err := a.rdb.ZRange(ctx, a.accessIndex(), 0, int64(excess-1)).Result()
	if err != nil {
		return fmt.Errorf("failed to find least used entries: %w", err)
	}

	if err := a.removeKeys(ctx, keys...); err != nil {
		return fmt.Errorf("failed to trim cache entries: %w", err)
	}
	return nil
}

func (a *Adapter) TopByAccess(ctx context.Context, limit int, now float64) ([]*store.Record, error) {
	keys, err := a.rdb.ZRevRange(ctx, a.accessIndex(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query top entries: %w", err)
	}

	var records []*store.Record
	for _, key := range keys {
		data, err := a.rdb.Get(ctx, a.entryKey(key)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cache entry: %w", err)
		}

		rec := &store.Record{}
		if err := json.Unmarshal([]byte(data), rec); err != nil {
			return nil, fmt.Errorf("failed to decode cache entry: %w", err)
		}
		if rec.Expired(now) {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func (a *Adapter) Count(ctx context.Context) (int, error) {
	count, err := a.rdb.ZCard(ctx, a.accessIndex()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(count), nil
}

func (a *Adapter) GetAccessStats(ctx context.Context) (*store.AccessStats, error) {
	members, err := a.rdb.ZRangeWithScores(ctx, a.accessIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate access stats: %w", err)
	}

	stats := &store.AccessStats{}
	for _, member := range members {
		count := int(member.Score)
		stats.TotalAccesses += count
		if count > stats.MaxAccesses {
			stats.MaxAccesses = count
		}
	}
	if len(members) > 0 {
		stats.AvgAccesses = float64(stats.TotalAccesses) / float64(len(members))
	}
	return stats, nil
}

func (a *Adapter) Clear(ctx context.Context) error {
	iter := a.rdb.Scan(ctx, 0, a.config.KeyPrefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := a.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to clear cache entries: %w", err)
		}
	}
	return nil
}

func (a *Adapter) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.rdb.Ping(ctx).Err()
}

func (a *Adapter) Close() error {
	return a.rdb.Close()
}
