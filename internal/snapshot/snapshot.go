// Package snapshot keeps the last-known-good copy of server data and the
// offline-mode settings for disconnected reads.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/logging"
	"go.uber.org/zap"
)

// Durable record keys.
const (
	DataKey     = "offline_data"
	SettingsKey = "offline_settings"
)

// Snapshot is the single offline copy of server data held per profile.
type Snapshot struct {
	Alerts      []json.RawMessage `json:"alerts"`
	WeatherData json.RawMessage   `json:"weatherData,omitempty"`
	MapData     []json.RawMessage `json:"mapData"`
	UserReports []json.RawMessage `json:"userReports"`
	LastSync    time.Time         `json:"lastSync"`
}

// Patch is a partial snapshot write. Nil fields leave the stored value untouched.
type Patch struct {
	Alerts      *[]json.RawMessage `json:"alerts,omitempty"`
	WeatherData *json.RawMessage   `json:"weatherData,omitempty"`
	MapData     *[]json.RawMessage `json:"mapData,omitempty"`
	UserReports *[]json.RawMessage `json:"userReports,omitempty"`
}

// Settings are the user's offline-mode preferences.
type Settings struct {
	OfflineMode bool      `json:"offlineMode"`
	AutoSync    bool      `json:"autoSync"`
	CacheMaps   bool      `json:"cacheMaps"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DefaultSettings applies when no settings record exists.
func DefaultSettings() Settings {
	return Settings{AutoSync: true, CacheMaps: true}
}

// KV is the string-keyed durable record store.
type KV interface {
	GetValue(key string) (string, bool, error)
	PutValue(key, value string) error
}

// Store reads and writes the snapshot and settings records.
type Store struct {
	mu     sync.Mutex
	kv     KV
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a snapshot store over kv.
func NewStore(kv KV, b *bus.Bus, logger *zap.Logger) *Store {
	return &Store{kv: kv, bus: b, logger: logging.OrNop(logger), now: time.Now}
}

// Load returns the stored snapshot. ok is false when none exists or the
// record cannot be decoded.
func (s *Store) Load() (snap Snapshot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save merges p into the stored snapshot, creating it if absent, and always
// refreshes LastSync.
func (s *Store) Save(p Patch) (Snapshot, error) {
	s.mu.Lock()
	snap, err := s.save(p)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	s.bus.Emit(bus.KindSnapshotSaved, snap.LastSync)
	return snap, nil
}

// AddUserReport appends a locally created report to the snapshot.
func (s *Store) AddUserReport(report json.RawMessage) (Snapshot, error) {
	s.mu.Lock()
	current, _ := s.load()
	reports := append(append([]json.RawMessage{}, current.UserReports...), report)
	snap, err := s.save(Patch{UserReports: &reports})
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	s.bus.Emit(bus.KindSnapshotSaved, snap.LastSync)
	return snap, nil
}

// save merges p under s.mu.
func (s *Store) save(p Patch) (Snapshot, error) {
	snap, _ := s.load()
	if p.Alerts != nil {
		snap.Alerts = *p.Alerts
	}
	if p.WeatherData != nil {
		snap.WeatherData = *p.WeatherData
	}
	if p.MapData != nil {
		snap.MapData = *p.MapData
	}
	if p.UserReports != nil {
		snap.UserReports = *p.UserReports
	}
	snap.LastSync = s.now()
	if err := s.write(DataKey, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Clear removes the snapshot record.
func (s *Store) Clear() error {
	s.mu.Lock()
	err := s.kv.PutValue(DataKey, "")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	s.bus.Emit(bus.KindSnapshotCleared, nil)
	return nil
}

// Settings returns the stored settings, or DefaultSettings when absent or corrupt.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.kv.GetValue(SettingsKey)
	if err != nil || !ok || raw == "" {
		return DefaultSettings()
	}
	var st Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn("discarding corrupt offline settings", zap.Error(err))
		return DefaultSettings()
	}
	return st
}

// SaveSettings replaces the settings record.
func (s *Store) SaveSettings(st Settings) (Settings, error) {
	st.UpdatedAt = s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(SettingsKey, st); err != nil {
		return Settings{}, err
	}
	return st, nil
}

// AutoSyncEnabled reports whether online edges may flush the queue.
func (s *Store) AutoSyncEnabled() bool {
	st := s.Settings()
	return st.AutoSync && !st.OfflineMode
}

func (s *Store) load() (Snapshot, bool) {
	raw, ok, err := s.kv.GetValue(DataKey)
	if err != nil {
		s.logger.Warn("failed to read offline snapshot", zap.Error(err))
		return Snapshot{}, false
	}
	if !ok || raw == "" {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("discarding corrupt offline snapshot", zap.Error(err))
		return Snapshot{}, false
	}
	return snap, true
}

func (s *Store) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.PutValue(key, string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
