package application

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/event-planner/internal/scheduler"
)

// listingCache keeps recently filtered and sorted catalog listings so
// repeated queries skip collation while the catalog is unchanged. Entries
// expire after ttl and are dropped wholesale on catalog reload.
type listingCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]listingCacheEntry
}

type listingCacheEntry struct {
	events    []scheduler.Event
	expiresAt time.Time
}

func newListingCache(ttl time.Duration, maxEntries int, now func() time.Time) *listingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &listingCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]listingCacheEntry),
	}
}

func (c *listingCache) Get(key string) ([]scheduler.Event, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneEvents(entry.events), true
}

func (c *listingCache) Store(key string, events []scheduler.Event) {
	if c == nil {
		return
	}
	cloned := cloneEvents(events)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = listingCacheEntry{events: cloned, expiresAt: expiry}
}

func (c *listingCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]listingCacheEntry)
	c.mu.Unlock()
}

func (c *listingCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *listingCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneEvents(events []scheduler.Event) []scheduler.Event {
	if events == nil {
		return nil
	}
	out := make([]scheduler.Event, len(events))
	copy(out, events)
	return out
}

func buildListingCacheKey(generation uint64, params ListEventsParams) string {
	fields := []string{
		strconv.FormatUint(generation, 10),
		strings.ToLower(strings.TrimSpace(params.State)),
		strings.TrimSpace(params.Type),
		strings.ToLower(strings.TrimSpace(params.Query)),
		strings.TrimSpace(params.Sort),
		strings.ToLower(strings.TrimSpace(params.Order)),
	}
	return strings.Join(fields, "|")
}
