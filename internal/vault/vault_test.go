package vault

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestSetGetDelete(t *testing.T) {
	keyring.MockInit()
	v := New()

	if err := v.Set(KeyAccessToken, "tok-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := v.Get(KeyAccessToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("got %q, want %q", got, "tok-123")
	}

	if err := v.Delete(KeyAccessToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := v.Get(KeyAccessToken); err == nil {
		t.Error("expected error after delete")
	}
}

func TestGet_EnvFallback(t *testing.T) {
	keyring.MockInit()
	v := New()

	t.Setenv("BACKLIFY_USERNAME", "arif")

	got, err := v.Get(KeyUsername)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "arif" {
		t.Errorf("got %q, want %q", got, "arif")
	}
}

func TestDelete_MissingKeyIsNoError(t *testing.T) {
	keyring.MockInit()
	v := New()

	if err := v.Delete(KeyUserPlan); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestClear(t *testing.T) {
	keyring.MockInit()
	v := New()

	for _, k := range knownKeys {
		if err := v.Set(k, "value-"+k); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	if err := v.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	keys, err := v.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys after Clear, got %v", keys)
	}
}
