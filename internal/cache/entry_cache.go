// Package cache holds the entry-list cache that used to live as a mutable
// global in the UI layer. It is an explicit component now: a per-profile TTL
// cache with invalidation calls, layered by the service. The repository
// itself stays stateless.
package cache

import (
	"sync"
	"time"

	"github.com/polarais/haru-sub000/internal/model"
)

// DefaultTTL matches the freshness window the UI layer historically used.
const DefaultTTL = 30 * time.Second

type cached struct {
	entries   []model.DiaryEntry
	expiresAt time.Time
}

// EntryCache caches each profile's entry list for a fixed TTL.
type EntryCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]cached
	now  func() time.Time
}

// NewEntryCache creates a cache with the given TTL; a non-positive TTL falls
// back to DefaultTTL.
func NewEntryCache(ttl time.Duration) *EntryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EntryCache{
		ttl:  ttl,
		data: make(map[string]cached),
		now:  time.Now,
	}
}

// Get returns the cached entries for a profile, or false when absent or
// stale.
func (c *EntryCache) Get(profileID string) ([]model.DiaryEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.data[profileID]
	if !ok || c.now().After(item.expiresAt) {
		return nil, false
	}
	return item.entries, true
}

// Set stores a fresh entry list for a profile.
func (c *EntryCache) Set(profileID string, entries []model.DiaryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[profileID] = cached{entries: entries, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops a profile's cached list. Every mutation calls this so the
// next read refreshes from storage.
func (c *EntryCache) Invalidate(profileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, profileID)
}
