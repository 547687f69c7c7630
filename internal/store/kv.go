package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// The session_kv table is the fallback persistence substrate for
// session credentials on hosts where no OS keychain is available.
// It satisfies the same contract as the keyring vault.

// SetKV inserts or replaces a key/value pair.
func (s *Store) SetKV(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.writer.Exec(`
		INSERT OR REPLACE INTO session_kv (key, value, updated_at)
		VALUES (?, ?, ?)`, key, value, now,
	)
	if err != nil {
		return fmt.Errorf("store: set kv %s: %w", key, err)
	}
	return nil
}

// GetKV retrieves the value for a key. Returns an error for missing or
// empty keys so it matches the vault's Get contract.
func (s *Store) GetKV(key string) (string, error) {
	var value string
	err := s.reader.QueryRow("SELECT value FROM session_kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return "", fmt.Errorf("store: no value for %q", key)
	}
	if err != nil {
		return "", fmt.Errorf("store: get kv %s: %w", key, err)
	}
	return value, nil
}

// ClearKV removes every key/value pair.
func (s *Store) ClearKV() error {
	if _, err := s.writer.Exec("DELETE FROM session_kv"); err != nil {
		return fmt.Errorf("store: clear kv: %w", err)
	}
	return nil
}
