package cache

import (
	"sort"
	"sync"

	"lyric-cache/internal/store"
)

// memoryTier is the bounded in-process mapping from fingerprint to entry.
// It holds the hottest entries for the process lifetime and serves them
// without I/O. All methods are safe for concurrent use.
type memoryTier struct {
	mu      sync.RWMutex
	entries map[string]*store.Record
}

func newMemoryTier() *memoryTier {
	return &memoryTier{
		entries: make(map[string]*store.Record),
	}
}

// Get returns the entry for key if present and not expired. Expired entries
// are reported as absent but never deleted here; removal is the facade's
// responsibility.
func (m *memoryTier) Get(key string, now float64) (*store.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.entries[key]
	if !ok || rec.Expired(now) {
		return nil, false
	}
	return rec, true
}

// Touch performs a successful read: it bumps the entry's access statistics
// and returns the stored value plus the post-increment access count.
func (m *memoryTier) Touch(key string, now float64) ([]byte, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.entries[key]
	if !ok || rec.Expired(now) {
		return nil, 0, false
	}

	rec.AccessCount++
	rec.LastAccessed = now
	return rec.Value, rec.AccessCount, true
}

// Put unconditionally inserts or overwrites the entry.
func (m *memoryTier) Put(key string, rec *store.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = rec
}

// Remove deletes the entry; absent keys are a no-op.
func (m *memoryTier) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *memoryTier) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// RemoveExpired scans the tier and deletes every lapsed entry, returning the
// number removed.
func (m *memoryTier) RemoveExpired(now float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.entries {
		if rec.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// EvictOldest removes entries until the tier holds at most max, dropping the
// least recently read first. Never-read entries order by creation time.
func (m *memoryTier) EvictOldest(max int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	excess := len(m.entries) - max
	if excess <= 0 {
		return 0
	}

	candidates := make([]*store.Record, 0, len(m.entries))
	for _, rec := range m.entries {
		candidates = append(candidates, rec)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].LastAccessed != candidates[j].LastAccessed {
			return candidates[i].LastAccessed < candidates[j].LastAccessed
		}
		return candidates[i].CreatedAt < candidates[j].CreatedAt
	})

	for _, rec := range candidates[:excess] {
		delete(m.entries, rec.Key)
	}
	return excess
}

// Clear empties the tier unconditionally.
func (m *memoryTier) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*store.Record)
}

// snapshot returns a copy of the entry for key, expired or not. Used by
// introspection and tests.
func (m *memoryTier) snapshot(key string) (store.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.entries[key]
	if !ok {
		return store.Record{}, false
	}
	return *rec, true
}
