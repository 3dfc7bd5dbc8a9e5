// Package postgres implements the persistent cache tier on PostgreSQL for
// deployments that already run one; query patterns match the SQLite backend.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lyric-cache/internal/store"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL config: %w", err)
	}

	db, err := sql.Open("pgx", config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			timestamp DOUBLE PRECISION NOT NULL,
			ttl INTEGER NOT NULL,
			access_count INTEGER DEFAULT 0,
			last_accessed DOUBLE PRECISION DEFAULT 0.0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_entries_timestamp ON cache_entries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_entries_access_count ON cache_entries(access_count DESC)`,
	}

	for _, query := range queries {
		if _, err := a.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

func (a *Adapter) Get(ctx context.Context, key string, now float64) (*store.Record, error) {
	rec := &store.Record{Key: key}
	var value string

	err := a.db.QueryRowContext(ctx,
		`SELECT value, timestamp, ttl, access_count, last_accessed
		 FROM cache_entries WHERE key = $1`, key).
		Scan(&value, &rec.CreatedAt, &rec.TTLSeconds, &rec.AccessCount, &rec.LastAccessed)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if rec.Expired(now) {
		if _, err := a.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
			return nil, fmt.Errorf("failed to delete expired entry: %w", err)
		}
		return nil, nil
	}

	_, err = a.db.ExecContext(ctx,
		`UPDATE cache_entries SET access_count = $1, last_accessed = $2 WHERE key = $3`,
		rec.AccessCount+1, now, key)
	if err != nil {
		return nil, fmt.Errorf("failed to update access stats: %w", err)
	}

	rec.Value = []byte(value)
	return rec, nil
}

func (a *Adapter) Put(ctx context.Context, rec *store.Record) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, timestamp, ttl, access_count, last_accessed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			timestamp = EXCLUDED.timestamp,
			ttl = EXCLUDED.ttl,
			access_count = EXCLUDED.access_count,
			last_accessed = EXCLUDED.last_accessed`,
		rec.Key, string(rec.Value), rec.CreatedAt, rec.TTLSeconds, rec.AccessCount, rec.LastAccessed)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (a *Adapter) UpdateStats(ctx context.Context, key string, accessCount int, lastAccessed float64) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE cache_entries SET access_count = $1, last_accessed = $2 WHERE key = $3`,
		accessCount, lastAccessed, key)
	if err != nil {
		return fmt.Errorf("failed to update cache stats: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteExpired(ctx context.Context, now float64) (int, error) {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE timestamp + ttl < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted entries: %w", err)
	}
	return int(removed), nil
}

func (a *Adapter) TrimLeastUsed(ctx context.Context, keep int) error {
	_, err := a.db.ExecContext(ctx,
		`DELETE FROM cache_entries
		 WHERE key NOT IN (
			SELECT key FROM cache_entries
			ORDER BY access_count DESC, key
			LIMIT $1
		 )`, keep)
	if err != nil {
		return fmt.Errorf("failed to trim cache entries: %w", err)
	}
	return nil
}

func (a *Adapter) TopByAccess(ctx context.Context, limit int, now float64) ([]*store.Record, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT key, value, timestamp, ttl, access_count, last_accessed
		 FROM cache_entries
		 ORDER BY access_count DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top entries: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		rec := &store.Record{}
		var value string
		if err := rows.Scan(&rec.Key, &value, &rec.CreatedAt, &rec.TTLSeconds,
			&rec.AccessCount, &rec.LastAccessed); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		if rec.Expired(now) {
			continue
		}
		rec.Value = []byte(value)
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (a *Adapter) Count(ctx context.Context) (int, error) {
	var count int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

func (a *Adapter) GetAccessStats(ctx context.Context) (*store.AccessStats, error) {
	stats := &store.AccessStats{}
	var total, max sql.NullInt64
	var avg sql.NullFloat64

	err := a.db.QueryRowContext(ctx,
		`SELECT SUM(access_count), AVG(access_count), MAX(access_count) FROM cache_entries`).
		Scan(&total, &avg, &max)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate access stats: %w", err)
	}

	stats.TotalAccesses = int(total.Int64)
	stats.AvgAccesses = avg.Float64
	stats.MaxAccesses = int(max.Int64)
	return stats, nil
}

func (a *Adapter) Clear(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	return nil
}

func (a *Adapter) Health() error {
	return a.db.Ping()
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
