package store

import (
	"fmt"
	"time"
)

// CacheRow represents a cached response stored in the response_cache table.
type CacheRow struct {
	Key        string
	Family     string
	Method     string
	Path       string
	Payload    []byte
	StatusCode int64
	CreatedAt  string
	ExpiresAt  string
}

// GetCache retrieves a cache row by its key.
// Returns sql.ErrNoRows (wrapped) if the key does not exist.
func (s *Store) GetCache(key string) (*CacheRow, error) {
	c := &CacheRow{}
	err := s.reader.QueryRow(`
		SELECT key, family, method, path, payload, status_code, created_at, expires_at
		FROM response_cache WHERE key = ?`, key,
	).Scan(
		&c.Key, &c.Family, &c.Method, &c.Path, &c.Payload, &c.StatusCode,
		&c.CreatedAt, &c.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get cache %s: %w", key, err)
	}
	return c, nil
}

// SetCache inserts or replaces a cache row. If a row with the same key
// already exists it is overwritten.
func (s *Store) SetCache(c *CacheRow) error {
	_, err := s.writer.Exec(`
		INSERT OR REPLACE INTO response_cache (
			key, family, method, path, payload, status_code, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Key, c.Family, c.Method, c.Path, c.Payload, c.StatusCode,
		c.CreatedAt, c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("store: set cache: %w", err)
	}
	return nil
}

// DeleteCache removes a single cache row by its key.
func (s *Store) DeleteCache(key string) error {
	if _, err := s.writer.Exec("DELETE FROM response_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("store: delete cache %s: %w", key, err)
	}
	return nil
}

// DeleteCacheFamily removes every cache row recorded under the given
// resource family. Returns the number of rows deleted.
func (s *Store) DeleteCacheFamily(family string) (int64, error) {
	result, err := s.writer.Exec("DELETE FROM response_cache WHERE family = ?", family)
	if err != nil {
		return 0, fmt.Errorf("store: delete cache family %s: %w", family, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete cache family rows affected: %w", err)
	}
	return n, nil
}

// DeleteExpired removes all cache rows whose expires_at timestamp is
// in the past. It returns the number of rows deleted.
func (s *Store) DeleteExpired() (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.writer.Exec("DELETE FROM response_cache WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("store: delete expired cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete expired rows affected: %w", err)
	}
	return n, nil
}

// ClearCache removes every cache row. Used on login and logout.
func (s *Store) ClearCache() error {
	if _, err := s.writer.Exec("DELETE FROM response_cache"); err != nil {
		return fmt.Errorf("store: clear cache: %w", err)
	}
	return nil
}
