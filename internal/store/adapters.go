package store

import (
	"time"

	cachepkg "github.com/ArifBabayev05/backlify-client/internal/cache"
)

// CacheAdapter adapts Store to the cache.Store interface.
type CacheAdapter struct {
	store *Store
}

// NewCacheAdapter creates a new CacheAdapter wrapping the given Store.
func NewCacheAdapter(s *Store) *CacheAdapter {
	return &CacheAdapter{store: s}
}

// GetEntry retrieves a cache entry by key.
func (a *CacheAdapter) GetEntry(key string) (*cachepkg.Entry, error) {
	row, err := a.store.GetCache(key)
	if err != nil {
		return nil, err
	}
	created, _ := time.Parse(time.RFC3339, row.CreatedAt)
	expires, _ := time.Parse(time.RFC3339, row.ExpiresAt)
	return &cachepkg.Entry{
		Payload:    row.Payload,
		StatusCode: int(row.StatusCode),
		Family:     row.Family,
		Method:     row.Method,
		Path:       row.Path,
		CreatedAt:  created,
		ExpiresAt:  expires,
	}, nil
}

// PutEntry inserts or replaces a cache entry.
func (a *CacheAdapter) PutEntry(key string, entry *cachepkg.Entry) error {
	return a.store.SetCache(&CacheRow{
		Key:        key,
		Family:     entry.Family,
		Method:     entry.Method,
		Path:       entry.Path,
		Payload:    entry.Payload,
		StatusCode: int64(entry.StatusCode),
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  entry.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// DeleteEntry removes a single entry by key.
func (a *CacheAdapter) DeleteEntry(key string) error {
	return a.store.DeleteCache(key)
}

// DeleteFamily removes every entry in the given resource family.
func (a *CacheAdapter) DeleteFamily(family string) error {
	_, err := a.store.DeleteCacheFamily(family)
	return err
}

// DeleteExpired removes expired entries.
func (a *CacheAdapter) DeleteExpired() error {
	_, err := a.store.DeleteExpired()
	return err
}

// Clear removes every cache entry.
func (a *CacheAdapter) Clear() error {
	return a.store.ClearCache()
}

// KVAdapter adapts Store to the session.Persister interface, for hosts
// without a usable OS keychain.
type KVAdapter struct {
	store *Store
}

// NewKVAdapter creates a new KVAdapter wrapping the given Store.
func NewKVAdapter(s *Store) *KVAdapter {
	return &KVAdapter{store: s}
}

// Set stores a key/value pair.
func (a *KVAdapter) Set(key, value string) error {
	return a.store.SetKV(key, value)
}

// Get retrieves the value for a key.
func (a *KVAdapter) Get(key string) (string, error) {
	return a.store.GetKV(key)
}

// Clear removes every key/value pair.
func (a *KVAdapter) Clear() error {
	return a.store.ClearKV()
}
