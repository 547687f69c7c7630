// Package cache memoizes GET responses from the backend in a two-tier
// store: an in-memory LRU for the hot path and a pluggable persistent
// backend for cross-restart reuse. Entries are keyed by a deterministic
// hash of the request (see key.go) and grouped into resource families
// so a mutation can invalidate every stale read of the touched table.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a cached response is served before it is
// treated as stale.
const DefaultTTL = 5 * time.Minute

// Entry represents a cached response with metadata.
type Entry struct {
	Payload    []byte    `json:"payload"`
	StatusCode int       `json:"status_code"`
	Family     string    `json:"family"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired returns true if the entry has passed its expiration time.
func (e *Entry) Expired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Store is the persistence interface for cached responses.
// Implementations may use SQLite, Redis, or other backends.
type Store interface {
	GetEntry(key string) (*Entry, error)
	PutEntry(key string, entry *Entry) error
	DeleteEntry(key string) error
	DeleteFamily(family string) error
	DeleteExpired() error
	Clear() error
}

// Cache is the two-tier response cache (in-memory LRU + persistent store).
type Cache struct {
	memory *lru.Cache[string, *Entry]
	store  Store
	ttl    time.Duration
}

// New creates a Cache.
//
//   - store is the persistent cache backend (may be nil for memory-only).
//   - ttl is the time-to-live for entries; <=0 selects DefaultTTL.
//   - maxMemoryEntries is the maximum number of entries in the in-memory LRU.
func New(store Store, ttl time.Duration, maxMemoryEntries int) (*Cache, error) {
	if maxMemoryEntries <= 0 {
		maxMemoryEntries = 1000
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	memCache, err := lru.New[string, *Entry](maxMemoryEntries)
	if err != nil {
		return nil, fmt.Errorf("cache: creating LRU: %w", err)
	}

	return &Cache{
		memory: memCache,
		store:  store,
		ttl:    ttl,
	}, nil
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry for key, or (nil, false) on a miss. A hit past
// its TTL is a miss: the stale entry is evicted from both tiers.
func (c *Cache) Get(key string) (*Entry, bool) {
	// Tier 1: in-memory LRU.
	if entry, ok := c.memory.Get(key); ok {
		if !entry.Expired() {
			return entry, true
		}
		c.memory.Remove(key)
	}

	// Tier 2: persistent store.
	if c.store != nil {
		entry, err := c.store.GetEntry(key)
		if err == nil && entry != nil {
			if entry.Expired() {
				if err := c.store.DeleteEntry(key); err != nil {
					log.Debug().Err(err).Str("key", key).Msg("cache: evict failed")
				}
				return nil, false
			}
			// Promote to memory.
			c.memory.Add(key, entry)
			return entry, true
		}
	}

	return nil, false
}

// Put stores a response under key. Empty payloads are silently not
// cached, so a void result can never shadow a later real one.
func (c *Cache) Put(key string, entry *Entry) {
	if entry == nil || len(entry.Payload) == 0 {
		return
	}

	now := time.Now()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.ttl)

	c.memory.Add(key, entry)

	if c.store != nil {
		if err := c.store.PutEntry(key, entry); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache: persist failed")
		}
	}
}

// Invalidate removes every entry recorded under the given resource
// family, in both tiers. Called after every mutation so stale list and
// detail reads are never served after a write.
func (c *Cache) Invalidate(family string) {
	for _, key := range c.memory.Keys() {
		if entry, ok := c.memory.Peek(key); ok && entry.Family == family {
			c.memory.Remove(key)
		}
	}

	if c.store != nil {
		if err := c.store.DeleteFamily(family); err != nil {
			log.Debug().Err(err).Str("family", family).Msg("cache: invalidate failed")
		}
	}
}

// Clear removes every entry from both tiers. Used on login and logout
// to prevent cross-session leakage.
func (c *Cache) Clear() {
	c.memory.Purge()
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			log.Debug().Err(err).Msg("cache: clear failed")
		}
	}
}

// StartPurger starts a background goroutine that periodically purges
// expired entries from the persistent store and evicts expired entries
// from the in-memory LRU. It runs every 5 minutes until the context is
// cancelled. The returned channel is closed when the goroutine exits,
// allowing callers to synchronize shutdown before closing the
// underlying store.
func (c *Cache) StartPurger(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Error().Interface("panic", r).Msg("cache purger: recovered from panic")
						}
					}()
					c.purge()
				}()
			}
		}
	}()
	return done
}

// purge removes expired entries from both tiers.
func (c *Cache) purge() {
	if c.store != nil {
		_ = c.store.DeleteExpired()
	}

	for _, key := range c.memory.Keys() {
		if entry, ok := c.memory.Peek(key); ok && entry.Expired() {
			c.memory.Remove(key)
		}
	}
}
