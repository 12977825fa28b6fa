package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.floodline/config.toml.
type Config struct {
	DefaultProfile string        `toml:"default_profile"`
	Backend        BackendConfig `toml:"backend"`
	Sync           SyncConfig    `toml:"sync"`
	Gateway        GatewayConfig `toml:"gateway"`
	Cache          CacheConfig   `toml:"cache"`
}

// BackendConfig points the synchronizer at the remote report API. A zero
// Timeout leaves each dispatch bounded only by the transport.
type BackendConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// SyncConfig tunes the queue synchronizer and the connectivity probe.
type SyncConfig struct {
	MaxRetries       int      `toml:"max_retries"`
	MinFlushInterval Duration `toml:"min_flush_interval"`
	ProbeURL         string   `toml:"probe_url"`
	ProbeInterval    Duration `toml:"probe_interval"`
}

// GatewayConfig configures the local HTTP face of the cache worker.
type GatewayConfig struct {
	Listen string `toml:"listen"`
	Origin string `toml:"origin"`
}

// CacheConfig configures cache generations and request classification.
type CacheConfig struct {
	Prefix       string   `toml:"prefix"`
	Version      string   `toml:"version"`
	Precache     []string `toml:"precache"`
	NetworkFirst []string `toml:"network_first"`
	CacheFirst   []string `toml:"cache_first"`
	SkipWaiting  bool     `toml:"skip_waiting"`
	InstallRetry Duration `toml:"install_retry"`
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Backend: BackendConfig{
			URL: "http://localhost:54321/rest/v1",
		},
		Sync: SyncConfig{
			MaxRetries:       3,
			MinFlushInterval: Duration{5 * time.Second},
			ProbeInterval:    Duration{15 * time.Second},
		},
		Gateway: GatewayConfig{
			Listen: "127.0.0.1:8787",
			Origin: "http://localhost:5173",
		},
		Cache: CacheConfig{
			Prefix:  "flood-alert",
			Version: "v1",
			Precache: []string{
				"/",
				"/index.html",
				"/map",
				"/alerts",
				"/report",
				"/manifest.json",
				"/icons/icon-192x192.png",
				"/icons/icon-512x512.png",
			},
			NetworkFirst: []string{
				`/rest/v1/`,
				`/functions/v1/`,
				`supabase\.co`,
				`api\.openweathermap\.org`,
				`nominatim\.openstreetmap\.org`,
				`tile\.openstreetmap\.org`,
			},
			CacheFirst: []string{
				`/icons/`,
				`/images/`,
				`\.(png|jpe?g|gif|svg|webp|ico)$`,
				`\.(css|woff2?)$`,
			},
			SkipWaiting:  true,
			InstallRetry: Duration{30 * time.Second},
		},
	}
}

// Load reads config from the given path over the defaults. Returns an error if
// the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate reports settings the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Cache.Version == "" {
		return errors.New("cache.version must not be empty")
	}
	if c.Cache.Prefix == "" {
		return errors.New("cache.prefix must not be empty")
	}
	if c.Sync.MaxRetries < 1 {
		return fmt.Errorf("sync.max_retries must be >= 1, got %d", c.Sync.MaxRetries)
	}
	if c.Backend.Timeout.Duration < 0 {
		return fmt.Errorf("backend.timeout must not be negative, got %s", c.Backend.Timeout.Duration)
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
