package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyric-cache/internal/store"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	mr := miniredis.RunT(t)

	adapter, err := NewAdapter(&Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return adapter
}

func newRecord(key string, createdAt float64, ttl, accessCount int) *store.Record {
	return &store.Record{
		Key:         key,
		Value:       []byte(`{"risk":"LOW"}`),
		CreatedAt:   createdAt,
		TTLSeconds:  ttl,
		AccessCount: accessCount,
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:6379", cfg.Address)
	assert.Equal(t, "0", cfg.DB)
	assert.Equal(t, "10", cfg.PoolSize)
	assert.Equal(t, "lyriccache:", cfg.KeyPrefix)

	assert.Error(t, (&Config{DB: "16"}).Validate())
	assert.Error(t, (&Config{DB: "not-a-number"}).Validate())
	assert.Error(t, (&Config{PoolSize: "0"}).Validate())
}

func TestAdapter_GetBumpsAccessStats(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("k", 1000, 3600, 1)))

	rec, err := adapter.Get(ctx, "k", 1010)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []byte(`{"risk":"LOW"}`), rec.Value)
	assert.Equal(t, 1, rec.AccessCount, "returned record carries the pre-increment count")

	rec, err = adapter.Get(ctx, "k", 1020)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.AccessCount)
	assert.Equal(t, float64(1010), rec.LastAccessed)
}

func TestAdapter_GetMissingKey(t *testing.T) {
	adapter := newTestAdapter(t)

	rec, err := adapter.Get(context.Background(), "missing", 1000)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAdapter_GetDeletesExpiredEntry(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("k", 1000, 10, 1)))

	rec, err := adapter.Get(ctx, "k", 1010)
	require.NoError(t, err)
	assert.Nil(t, rec, "entry is expired exactly at createdAt+ttl")

	count, err := adapter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAdapter_UpdateStats(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("k", 1000, 3600, 1)))
	require.NoError(t, adapter.UpdateStats(ctx, "k", 7, 1500))
	require.NoError(t, adapter.UpdateStats(ctx, "missing", 3, 1500)) // absent keys are a no-op

	rec, err := adapter.Get(ctx, "k", 1600)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 7, rec.AccessCount)
	assert.Equal(t, float64(1500), rec.LastAccessed)
}

func TestAdapter_DeleteExpired(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("live", 1000, 1000, 1)))
	require.NoError(t, adapter.Put(ctx, newRecord("dead1", 1000, 10, 1)))
	require.NoError(t, adapter.Put(ctx, newRecord("dead2", 1000, 20, 1)))

	removed, err := adapter.DeleteExpired(ctx, 1100)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := adapter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec, err := adapter.Get(ctx, "live", 1100)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestAdapter_TrimLeastUsed(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, adapter.Put(ctx, newRecord(key, 1000, 3600, i+1)))
	}

	require.NoError(t, adapter.TrimLeastUsed(ctx, 2))

	count, err := adapter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rec, err := adapter.Get(ctx, "k4", 1001)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	rec, err = adapter.Get(ctx, "k0", 1001)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAdapter_TrimLeastUsedNoOpUnderLimit(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("k", 1000, 3600, 1)))
	require.NoError(t, adapter.TrimLeastUsed(ctx, 10))

	count, err := adapter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAdapter_TopByAccess(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("cold", 1000, 3600, 1)))
	require.NoError(t, adapter.Put(ctx, newRecord("warm", 1000, 3600, 5)))
	require.NoError(t, adapter.Put(ctx, newRecord("hot", 1000, 3600, 9)))
	require.NoError(t, adapter.Put(ctx, newRecord("expired", 1000, 10, 50)))

	records, err := adapter.TopByAccess(ctx, 3, 2000)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "hot", records[0].Key)
	assert.Equal(t, "warm", records[1].Key)
	assert.Equal(t, "cold", records[2].Key)
}

func TestAdapter_GetAccessStats(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	stats, err := adapter.GetAccessStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalAccesses)

	require.NoError(t, adapter.Put(ctx, newRecord("a", 1000, 3600, 2)))
	require.NoError(t, adapter.Put(ctx, newRecord("b", 1000, 3600, 6)))

	stats, err = adapter.GetAccessStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalAccesses)
	assert.Equal(t, 4.0, stats.AvgAccesses)
	assert.Equal(t, 6, stats.MaxAccesses)
}

func TestAdapter_Clear(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Put(ctx, newRecord("a", 1000, 3600, 1)))
	require.NoError(t, adapter.Put(ctx, newRecord("b", 1000, 3600, 1)))
	require.NoError(t, adapter.Clear(ctx))

	count, err := adapter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	rec, err := adapter.Get(ctx, "a", 1001)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFactory_CreateFromGenericConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	factory := &Factory{}

	st, err := factory.Create(store.GenericConfig{
		"type":    "redis",
		"address": mr.Addr(),
	})
	require.NoError(t, err)
	defer st.Close()

	assert.NoError(t, st.Health())
}
