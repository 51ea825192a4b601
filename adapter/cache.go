package adapter

import (
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// Cache maps adapter keys to pipeline suffixes. Entries never expire and
// never change once written. It is safe for concurrent use.
type Cache struct {
	entries *ttlcache.Cache[Key, string]
	flight  singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: ttlcache.New[Key, string](
			ttlcache.WithTTL[Key, string](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[Key, string](),
		),
	}
}

// TryGet returns the cached suffix for key without blocking on population.
func (c *Cache) TryGet(key Key) (string, bool) {
	item := c.entries.Get(key)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

// PopulateIfAbsent runs discover for key unless a value is already cached.
// Concurrent calls for the same key share one discovery. A found value is
// inserted only if the key is still absent, so the first write wins.
// The result is not returned; later TryGet calls observe it.
func (c *Cache) PopulateIfAbsent(key Key, discover func() (string, bool)) {
	if c.entries.Has(key) {
		return
	}
	c.flight.Do(key.String(), func() (any, error) {
		if c.entries.Has(key) {
			return nil, nil
		}
		if suffix, ok := discover(); ok {
			c.entries.GetOrSet(key, suffix)
		}
		return nil, nil
	})
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.DeleteAll()
}

// Len returns the number of cached adapters.
func (c *Cache) Len() int {
	return c.entries.Len()
}
