package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRow(key, family string, expiresAt time.Time) *CacheRow {
	return &CacheRow{
		Key:        key,
		Family:     family,
		Method:     "GET",
		Path:       "/" + family,
		Payload:    []byte(`{"ok":true}`),
		StatusCode: 200,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
	}
}

func TestOpen_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	version, err := s.currentVersion()
	if err != nil {
		t.Fatalf("currentVersion: %v", err)
	}
	if version < 1 {
		t.Errorf("expected migration version >= 1, got %d", version)
	}
}

func TestCache_SetGet(t *testing.T) {
	s := newTestStore(t)

	row := testRow("k1", "products", time.Now().Add(time.Hour))
	if err := s.SetCache(row); err != nil {
		t.Fatalf("SetCache: %v", err)
	}

	got, err := s.GetCache("k1")
	if err != nil {
		t.Fatalf("GetCache: %v", err)
	}
	if got.Family != "products" {
		t.Errorf("family = %q, want products", got.Family)
	}
	if string(got.Payload) != `{"ok":true}` {
		t.Errorf("payload = %s", got.Payload)
	}
}

func TestCache_DeleteByKey(t *testing.T) {
	s := newTestStore(t)

	s.SetCache(testRow("k1", "products", time.Now().Add(time.Hour)))
	s.SetCache(testRow("k2", "products", time.Now().Add(time.Hour)))

	if err := s.DeleteCache("k1"); err != nil {
		t.Fatalf("DeleteCache: %v", err)
	}
	if _, err := s.GetCache("k1"); err == nil {
		t.Error("k1 should be deleted")
	}
	if _, err := s.GetCache("k2"); err != nil {
		t.Errorf("k2 should survive: %v", err)
	}
}

func TestCache_GetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetCache("absent"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestCache_DeleteFamily(t *testing.T) {
	s := newTestStore(t)

	s.SetCache(testRow("p1", "products", time.Now().Add(time.Hour)))
	s.SetCache(testRow("p2", "products", time.Now().Add(time.Hour)))
	s.SetCache(testRow("o1", "orders", time.Now().Add(time.Hour)))

	n, err := s.DeleteCacheFamily("products")
	if err != nil {
		t.Fatalf("DeleteCacheFamily: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}
	if _, err := s.GetCache("o1"); err != nil {
		t.Error("orders row must survive products invalidation")
	}
}

func TestCache_DeleteExpired(t *testing.T) {
	s := newTestStore(t)

	s.SetCache(testRow("old", "products", time.Now().Add(-time.Hour)))
	s.SetCache(testRow("new", "products", time.Now().Add(time.Hour)))

	n, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	if _, err := s.GetCache("new"); err != nil {
		t.Error("unexpired row must survive DeleteExpired")
	}
}

func TestCache_Clear(t *testing.T) {
	s := newTestStore(t)

	s.SetCache(testRow("p1", "products", time.Now().Add(time.Hour)))
	if err := s.ClearCache(); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, err := s.GetCache("p1"); err == nil {
		t.Error("expected empty cache after ClearCache")
	}
}

func TestKV_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetKV("username", "arif"); err != nil {
		t.Fatalf("SetKV: %v", err)
	}
	got, err := s.GetKV("username")
	if err != nil {
		t.Fatalf("GetKV: %v", err)
	}
	if got != "arif" {
		t.Errorf("got %q, want arif", got)
	}

	if err := s.ClearKV(); err != nil {
		t.Fatalf("ClearKV: %v", err)
	}
	if _, err := s.GetKV("username"); err == nil {
		t.Error("expected error after ClearKV")
	}
}

func TestCacheAdapter_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	a := NewCacheAdapter(s)

	err := a.PutEntry("k1", adapterEntry("products"))
	if err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	got, err := a.GetEntry("k1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Family != "products" {
		t.Errorf("family = %q, want products", got.Family)
	}
	if got.Expired() {
		t.Error("entry should not be expired")
	}
}

func TestPrune_RemovesOldRows(t *testing.T) {
	s := newTestStore(t)

	old := testRow("old", "products", time.Now().Add(time.Hour))
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339)
	s.SetCache(old)
	s.SetCache(testRow("fresh", "products", time.Now().Add(time.Hour)))

	n, err := s.Prune(7)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}
	if _, err := s.GetCache("old"); err == nil {
		t.Error("old row should be pruned")
	}
	if _, err := s.GetCache("fresh"); err != nil {
		t.Errorf("fresh row should survive: %v", err)
	}
}
