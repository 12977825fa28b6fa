package model

import (
	"context"
	"sync"

	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/tui/client"
	"github.com/matheus3301/floodline/internal/tui/ui"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 200

// ViewModel caches daemon state for the views.
type ViewModel struct {
	mu sync.RWMutex

	client   *client.Client
	State    rpc.SyncState
	Actions  []rpc.Action
	Caches   []rpc.CacheInfo
	Worker   rpc.WorkerState
	Settings rpc.Settings
	Events   []rpc.Event
	Flash    *ui.FlashModel
}

// NewViewModel creates a new view model connected to the daemon client.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client: c,
		Flash:  ui.NewFlashModel(),
	}
}

// Load refreshes everything the dashboard shows.
func (vm *ViewModel) Load(ctx context.Context) error {
	var (
		state    rpc.SyncState
		actions  rpc.ActionList
		caches   rpc.CacheList
		worker   rpc.WorkerState
		settings rpc.Settings
	)
	calls := []struct {
		call func(context.Context, *emptypb.Empty, ...grpc.CallOption) (*structpb.Struct, error)
		dst  any
	}{
		{vm.client.Sync.GetSyncState, &state},
		{vm.client.Sync.ListActions, &actions},
		{vm.client.Cache.ListCaches, &caches},
		{vm.client.Cache.GetWorkerState, &worker},
		{vm.client.Sync.GetSettings, &settings},
	}
	for _, c := range calls {
		resp, err := c.call(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		if err := rpc.FromStruct(resp, c.dst); err != nil {
			return err
		}
	}

	vm.mu.Lock()
	vm.State = state
	vm.Actions = actions.Actions
	vm.Caches = caches.Caches
	vm.Worker = worker
	vm.Settings = settings
	vm.mu.Unlock()
	return nil
}

// Flush asks the daemon to flush the queue now.
func (vm *ViewModel) Flush(ctx context.Context) (rpc.FlushResult, error) {
	var res rpc.FlushResult
	resp, err := vm.client.Sync.Flush(ctx, &emptypb.Empty{})
	if err != nil {
		return res, err
	}
	err = rpc.FromStruct(resp, &res)
	return res, err
}

// ToggleOnline flips the daemon's connectivity flag.
func (vm *ViewModel) ToggleOnline(ctx context.Context) (bool, error) {
	online := !vm.GetState().Online
	_, err := vm.client.Sync.SetOnline(ctx, wrapperspb.Bool(online))
	return online, err
}

// ToggleSetting flips one boolean offline setting by its JSON name.
func (vm *ViewModel) ToggleSetting(ctx context.Context, name string) (rpc.Settings, error) {
	current := vm.GetSettings()
	value := map[string]bool{
		"offlineMode": current.OfflineMode,
		"autoSync":    current.AutoSync,
		"cacheMaps":   current.CacheMaps,
	}[name]

	var saved rpc.Settings
	req, err := structpb.NewStruct(map[string]any{name: !value})
	if err != nil {
		return saved, err
	}
	resp, err := vm.client.Sync.SaveSettings(ctx, req)
	if err != nil {
		return saved, err
	}
	if err := rpc.FromStruct(resp, &saved); err != nil {
		return saved, err
	}
	vm.mu.Lock()
	vm.Settings = saved
	vm.mu.Unlock()
	return saved, nil
}

// RefreshManifest asks the worker to re-fetch its precache list.
func (vm *ViewModel) RefreshManifest(ctx context.Context) error {
	_, err := vm.client.Cache.RefreshManifest(ctx, &emptypb.Empty{})
	return err
}

// SkipWaiting activates a waiting worker generation.
func (vm *ViewModel) SkipWaiting(ctx context.Context) error {
	_, err := vm.client.Cache.SkipWaiting(ctx, &emptypb.Empty{})
	return err
}

// Push delivers a test push payload to the worker.
func (vm *ViewModel) Push(ctx context.Context, payload string) error {
	_, err := vm.client.Cache.Push(ctx, wrapperspb.Bytes([]byte(payload)))
	return err
}

// Watch streams bus events into the event log until ctx ends. onEvent is
// called after each event is recorded.
func (vm *ViewModel) Watch(ctx context.Context, onEvent func(rpc.Event)) error {
	stream, err := vm.client.Sync.WatchEvents(ctx, wrapperspb.String(""))
	if err != nil {
		return err
	}
	for {
		msg, err := stream.Recv()
		if err != nil {
			return err
		}
		var evt rpc.Event
		if err := rpc.FromStruct(msg, &evt); err != nil {
			continue
		}
		vm.AppendEvent(evt)
		if onEvent != nil {
			onEvent(evt)
		}
	}
}

// AppendEvent records evt, newest first.
func (vm *ViewModel) AppendEvent(evt rpc.Event) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.Events = append([]rpc.Event{evt}, vm.Events...)
	if len(vm.Events) > maxEvents {
		vm.Events = vm.Events[:maxEvents]
	}
}

// GetState returns a snapshot of the sync state.
func (vm *ViewModel) GetState() rpc.SyncState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.State
}

// GetActions returns a snapshot of the queued actions.
func (vm *ViewModel) GetActions() []rpc.Action {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Actions
}

// GetCaches returns a snapshot of the cache list.
func (vm *ViewModel) GetCaches() []rpc.CacheInfo {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Caches
}

// GetWorker returns a snapshot of the worker state.
func (vm *ViewModel) GetWorker() rpc.WorkerState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Worker
}

// GetSettings returns a snapshot of the offline settings.
func (vm *ViewModel) GetSettings() rpc.Settings {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Settings
}

// GetEvents returns a snapshot of the event log.
func (vm *ViewModel) GetEvents() []rpc.Event {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Events
}
