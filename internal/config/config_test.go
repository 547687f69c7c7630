package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_WithExplicitFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
[client]
base_url = "https://api.example.com"
timeout = 15
log_level = "debug"
data_dir = "` + dir + `"

[cache]
enabled = true
ttl_seconds = 60
max_entries = 50

[relations]
page_limit = 25
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Client.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL: got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.TimeoutDuration() != 15*time.Second {
		t.Errorf("Timeout: got %v, want 15s", cfg.Client.TimeoutDuration())
	}
	if cfg.Client.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.Client.LogLevel)
	}
	if cfg.Cache.TTL() != 60*time.Second {
		t.Errorf("Cache TTL: got %v, want 60s", cfg.Cache.TTL())
	}
	if cfg.Relations.PageLimit != 25 {
		t.Errorf("PageLimit: got %d, want 25", cfg.Relations.PageLimit)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
[client]
base_url = "https://api.example.com"
data_dir = "` + dir + `"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("BACKLIFY_CLIENT_LOG_LEVEL", "warn")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Client.LogLevel != "warn" {
		t.Errorf("LogLevel with env override: got %q, want warn", cfg.Client.LogLevel)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
[client]
data_dir = "` + dir + `"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want default %q", cfg.Client.BaseURL, DefaultBaseURL)
	}
	if cfg.Cache.TTLSeconds != DefaultCacheTTL {
		t.Errorf("Cache TTLSeconds: got %d, want %d", cfg.Cache.TTLSeconds, DefaultCacheTTL)
	}
	if cfg.Relations.PageLimit != DefaultRelationPageLimit {
		t.Errorf("PageLimit: got %d, want %d", cfg.Relations.PageLimit, DefaultRelationPageLimit)
	}
}
