package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EnqueueRequest asks for a new queued action.
type EnqueueRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Action is a queued action as shown to clients.
type Action struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
}

// ActionList is the ListActions response.
type ActionList struct {
	Actions []Action `json:"actions"`
}

// FlushResult reports one flush call.
type FlushResult struct {
	Attempted int    `json:"attempted"`
	Synced    int    `json:"synced"`
	Retried   int    `json:"retried"`
	Dropped   int    `json:"dropped"`
	Remaining int    `json:"remaining"`
	Status    string `json:"status"`
	Coalesced bool   `json:"coalesced"`
	Skipped   string `json:"skipped,omitempty"`
}

// SyncRun is one recorded flush pass.
type SyncRun struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Synced     int       `json:"synced"`
	Retried    int       `json:"retried"`
	Dropped    int       `json:"dropped"`
	Remaining  int       `json:"remaining"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// SyncState is the GetSyncState response.
type SyncState struct {
	Status    string    `json:"status"`
	Online    bool      `json:"online"`
	LastError string    `json:"lastError,omitempty"`
	LastSync  time.Time `json:"lastSync"`
	Pending   int       `json:"pending"`
	Running   bool      `json:"running"`
	Runs      []SyncRun `json:"runs"`
}

// SetOnlineResult is the SetOnline response.
type SetOnlineResult struct {
	Online  bool `json:"online"`
	Changed bool `json:"changed"`
}

// Snapshot is the offline data snapshot. Absent reports that none is stored.
type Snapshot struct {
	Alerts      json.RawMessage `json:"alerts,omitempty"`
	WeatherData json.RawMessage `json:"weatherData,omitempty"`
	MapData     json.RawMessage `json:"mapData,omitempty"`
	UserReports json.RawMessage `json:"userReports,omitempty"`
	LastSync    time.Time       `json:"lastSync"`
	Absent      bool            `json:"absent,omitempty"`
}

// Settings are the offline settings.
type Settings struct {
	OfflineMode bool      `json:"offlineMode"`
	AutoSync    bool      `json:"autoSync"`
	CacheMaps   bool      `json:"cacheMaps"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Event is one bus event streamed by WatchEvents.
type Event struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// CacheInfo describes one named cache.
type CacheInfo struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Current bool   `json:"current"`
}

// CacheList is the ListCaches response.
type CacheList struct {
	Caches []CacheInfo `json:"caches"`
}

// WorkerState is the GetWorkerState response.
type WorkerState struct {
	Phase         string   `json:"phase"`
	Version       string   `json:"version"`
	ActiveVersion string   `json:"activeVersion"`
	Names         []string `json:"names"`
	Gateway       string   `json:"gateway"`
}

// NotificationClick is the ClickNotification request.
type NotificationClick struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ToStruct converts v to a Struct through its JSON encoding.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("convert %T: %w", v, err)
	}
	return s, nil
}

// FromStruct decodes s into v through its JSON encoding.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("convert struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
