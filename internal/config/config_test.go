package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "field"
	cfg.Cache.Version = "v7"
	cfg.Sync.MinFlushInterval = Duration{2 * time.Minute}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "field" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "field")
	}
	if loaded.Cache.Version != "v7" {
		t.Errorf("Cache.Version = %q, want v7", loaded.Cache.Version)
	}
	if loaded.Sync.MinFlushInterval.Duration != 2*time.Minute {
		t.Errorf("MinFlushInterval = %v, want 2m", loaded.Sync.MinFlushInterval)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
default_profile = "work"

[cache]
version = "v2"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Version != "v2" {
		t.Errorf("Cache.Version = %q, want v2", cfg.Cache.Version)
	}
	if cfg.Cache.Prefix != "flood-alert" {
		t.Errorf("Cache.Prefix = %q, want default flood-alert", cfg.Cache.Prefix)
	}
	if cfg.Sync.MaxRetries != 3 {
		t.Errorf("Sync.MaxRetries = %d, want default 3", cfg.Sync.MaxRetries)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sync]\nprobe_interval = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for bad duration")
	}
}

func TestLoadRejectsEmptyVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nversion = \"\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for empty cache.version")
	}
}

func TestLoadRejectsInvalidSync(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero retries", "[sync]\nmax_retries = 0\n"},
		{"negative retries", "[sync]\nmax_retries = -1\n"},
		{"negative timeout", "[backend]\ntimeout = \"-1s\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%q) expected error", tt.body)
			}
		})
	}
}

func TestDefaultBackendHasNoTimeout(t *testing.T) {
	if got := Default().Backend.Timeout.Duration; got != 0 {
		t.Errorf("Backend.Timeout = %s, want 0", got)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Cache.Version != Default().Cache.Version {
		t.Errorf("Cache.Version = %q, want default", cfg.Cache.Version)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
