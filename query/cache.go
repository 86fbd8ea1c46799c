// Package query caches fetched resources by key and deduplicates identical
// in-flight requests. Mutations invalidate narrowly: only the keys under the
// affected resource prefix are dropped, so editing one shop's entries never
// evicts another shop's pages.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached resource. Keys are hierarchical, segments joined
// by "|", so prefix matching gives per-resource invalidation.
type Key string

// KeyOf builds a key from its segments.
func KeyOf(parts ...any) Key {
	segments := make([]string, len(parts))
	for i, p := range parts {
		segments[i] = fmt.Sprint(p)
	}
	return Key(strings.Join(segments, "|"))
}

// Resource keys, mirroring the backend's resource hierarchy.

// ShopsKey identifies one page of the shop list.
func ShopsKey(offset, limit int) Key { return KeyOf("shop", "list", offset, limit) }

// ShopKey identifies a single shop.
func ShopKey(id int64) Key { return KeyOf("shop", id) }

// TitlesKey identifies a shop's account titles.
func TitlesKey(shopID int64) Key { return KeyOf("shop", shopID, "titles") }

// EntriesKey identifies a shop's ledger entries for one year.
func EntriesKey(shopID int64, year int) Key { return KeyOf("shop", shopID, "entries", year) }

// hasPrefix reports whether k lives under prefix in the key hierarchy.
func (k Key) hasPrefix(prefix Key) bool {
	if k == prefix {
		return true
	}
	return strings.HasPrefix(string(k), string(prefix)+"|")
}

// Cache stores fetch results keyed by resource. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]any
	flights singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]any)}
}

// Get returns the cached value for key, fetching it on a miss. Concurrent
// gets for the same key share a single fetch; every waiter receives the same
// outcome. A caller whose context is cancelled before the shared fetch
// resolves gets the context error and its result is not applied.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.mu.Unlock()
		if value, ok := cached.(T); ok {
			return value, nil
		}
		return zero, fmt.Errorf("cache entry for %q has unexpected type %T", key, cached)
	}
	c.mu.Unlock()

	ch := c.flights.DoChan(string(key), func() (any, error) {
		// The flight outlives any single caller, so it runs on its own
		// context; cancellation is a loss of interest, not an abort.
		value, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = value
		c.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if ctx.Err() != nil {
			// Resolved and cancelled at the same time; the caller has
			// already lost interest.
			return zero, ctx.Err()
		}
		value, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache entry for %q has unexpected type %T", key, res.Val)
		}
		return value, nil
	}
}

// Peek returns the cached value without fetching.
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	value, ok := cached.(T)
	return value, ok
}

// Invalidate drops every entry under each given prefix.
func (c *Cache) Invalidate(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		for _, prefix := range prefixes {
			if key.hasPrefix(prefix) {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Clear drops every entry. Used on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]any)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
