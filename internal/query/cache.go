// Package query implements the console's read-through cache over the
// backend API. Reads share one in-flight backend call per key, results
// carry invalidation tags, and mutations invalidate by tag so every page
// showing stale data refetches on its next render.
package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultTTL = 30 * time.Second

// Scope namespaces cache keys and tags by tenant and user, so one process
// can serve many sessions without cross-tenant reads.
type Scope struct {
	OrgID  string
	UserID string
}

// Tag returns tag namespaced to the scope. SSE handlers subscribe to the
// scoped form so they only wake for their own tenant's invalidations.
func (s Scope) Tag(tag string) string {
	return "o:" + s.OrgID + "/u:" + s.UserID + "/" + tag
}

// Broadcaster receives invalidated tags so subscribed pages can re-render.
type Broadcaster interface {
	Broadcast(topics ...string)
}

type entry struct {
	value     any
	err       error
	fetchedAt time.Time
	tags      map[string]struct{}
}

// Cache is the process-wide query cache: a map from scoped key to the last
// fetched value (or error), dropped by tag invalidation or TTL expiry.
// There is no eviction beyond that.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	group    singleflight.Group
	ttl      time.Duration
	notifier Broadcaster
	logger   *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets how long an entry stays fresh.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithBroadcaster wires invalidations to a notifier.
func WithBroadcaster(b Broadcaster) CacheOption {
	return func(c *Cache) { c.notifier = b }
}

// WithLogger sets the cache debug logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		ttl:     defaultTTL,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the value for key within scope, calling fn when the entry
// is missing, stale, or invalidated. Concurrent fetches of the same key
// share a single fn call. Errors are cached like values until invalidated
// or stale, so a broken backend is not hammered by every render.
func Fetch[T any](ctx context.Context, c *Cache, scope Scope, key string, tags []string, fn func(ctx context.Context) (T, error)) (T, error) {
	full := scope.Tag(key)

	if e, ok := c.lookup(full); ok {
		if e.err != nil {
			var zero T
			return zero, e.err
		}
		return e.value.(T), nil
	}

	value, err, shared := c.group.Do(full, func() (any, error) {
		// A previous flight may have filled the entry while this caller
		// waited for the flight lock.
		if e, ok := c.lookup(full); ok {
			return e.value, e.err
		}
		value, err := fn(ctx)
		c.store(scope, full, value, err, tags)
		return value, err
	})
	if shared {
		c.logger.Debug("fetch deduplicated", "key", full)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// lookup returns the fresh entry for fullKey, if any. Entries are replaced
// whole on store, so the returned entry is safe to read without the lock.
func (c *Cache) lookup(fullKey string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fullKey]
	if !ok || time.Since(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e, true
}

func (c *Cache) store(scope Scope, fullKey string, value any, err error, tags []string) {
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[scope.Tag(tag)] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fullKey] = &entry{value: value, err: err, fetchedAt: time.Now(), tags: tagSet}
}

// InvalidateTags drops every entry in scope carrying any of the tags and
// broadcasts the scoped tags to subscribed pages.
func (c *Cache) InvalidateTags(scope Scope, tags ...string) {
	if len(tags) == 0 {
		return
	}
	scoped := make([]string, len(tags))
	for i, tag := range tags {
		scoped[i] = scope.Tag(tag)
	}

	c.mu.Lock()
	for key, e := range c.entries {
		for _, tag := range scoped {
			if _, ok := e.tags[tag]; ok {
				delete(c.entries, key)
				break
			}
		}
	}
	c.mu.Unlock()

	c.logger.Debug("invalidated", "tags", scoped)
	if c.notifier != nil {
		c.notifier.Broadcast(scoped...)
	}
}

// InvalidateScope drops every entry belonging to scope. Used on sign-in,
// sign-out and organization switch, where the whole tenant view changes.
func (c *Cache) InvalidateScope(scope Scope) {
	prefix := scope.Tag("")
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	c.logger.Debug("invalidated scope", "org", scope.OrgID, "user", scope.UserID)
	if c.notifier != nil {
		c.notifier.Broadcast()
	}
}

// Len reports the number of live entries, for tests and debug logging.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
