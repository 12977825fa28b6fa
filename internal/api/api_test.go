package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/connectivity"
	"github.com/matheus3301/floodline/internal/outbox"
	"github.com/matheus3301/floodline/internal/queue"
	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/snapshot"
	"github.com/matheus3301/floodline/internal/status"
	"github.com/matheus3301/floodline/internal/store"
	"github.com/matheus3301/floodline/internal/worker"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type okBackend struct{}

func (okBackend) Dispatch(context.Context, queue.Action) error { return nil }

func newSyncService(t *testing.T) *SyncService {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	q := queue.New(db, b, nil)
	m := status.NewMachine(b)
	snaps := snapshot.NewStore(db, b, nil)
	syncer := outbox.NewSynchronizer(q, okBackend{}, m, b, nil, outbox.Options{Settings: snaps, Runs: db})
	mon := connectivity.NewMonitor(nil, 0, b, nil)
	return NewSyncService(q, syncer, m, mon, snaps, db, b, nil)
}

func TestEnqueueRejectsUnknownKind(t *testing.T) {
	s := newSyncService(t)
	req, _ := structpb.NewStruct(map[string]any{"type": "upsert", "data": map[string]any{}})
	_, err := s.Enqueue(context.Background(), req)
	if grpcstatus.Code(err) != codes.InvalidArgument {
		t.Fatalf("Enqueue error = %v, want InvalidArgument", err)
	}
}

func TestEnqueueReportUpdatesSnapshot(t *testing.T) {
	s := newSyncService(t)
	ctx := context.Background()
	req, _ := structpb.NewStruct(map[string]any{"type": "report", "data": map[string]any{"level": "high"}})
	if _, err := s.Enqueue(ctx, req); err != nil {
		t.Fatal(err)
	}
	del, _ := structpb.NewStruct(map[string]any{"type": "delete", "data": map[string]any{"id": "r1"}})
	if _, err := s.Enqueue(ctx, del); err != nil {
		t.Fatal(err)
	}

	snap, ok := s.snapshots.Load()
	if !ok || len(snap.UserReports) != 1 {
		t.Fatalf("snapshot = %+v, ok = %v", snap, ok)
	}

	resp, err := s.ListActions(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	var list rpc.ActionList
	if err := rpc.FromStruct(resp, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Actions) != 2 || list.Actions[0].Type != "report" || list.Actions[1].Type != "delete" {
		t.Errorf("actions = %+v", list.Actions)
	}
}

func TestFlushOfflineIsSkipped(t *testing.T) {
	s := newSyncService(t)
	req, _ := structpb.NewStruct(map[string]any{"type": "report"})
	if _, err := s.Enqueue(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	resp, err := s.Flush(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	var res rpc.FlushResult
	_ = rpc.FromStruct(resp, &res)
	if res.Skipped != outbox.SkipOffline || res.Synced != 0 || s.queue.Len() != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestSaveSettingsOverlaysPresentFields(t *testing.T) {
	s := newSyncService(t)
	ctx := context.Background()

	req, _ := structpb.NewStruct(map[string]any{"autoSync": false})
	resp, err := s.SaveSettings(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	var st rpc.Settings
	_ = rpc.FromStruct(resp, &st)
	if st.AutoSync || !st.CacheMaps || st.OfflineMode {
		t.Errorf("settings = %+v", st)
	}

	req, _ = structpb.NewStruct(map[string]any{"offlineMode": true})
	resp, err = s.SaveSettings(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	_ = rpc.FromStruct(resp, &st)
	if st.AutoSync || !st.OfflineMode {
		t.Errorf("second save lost earlier fields: %+v", st)
	}
}

func TestGetSnapshotAbsent(t *testing.T) {
	s := newSyncService(t)
	resp, err := s.GetSnapshot(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	var snap rpc.Snapshot
	_ = rpc.FromStruct(resp, &snap)
	if !snap.Absent {
		t.Errorf("snapshot = %+v, want absent", snap)
	}
}

func TestSetOnlineReportsEdge(t *testing.T) {
	s := newSyncService(t)
	ctx := context.Background()
	var res rpc.SetOnlineResult

	resp, err := s.SetOnline(ctx, wrapperspb.Bool(true))
	if err != nil {
		t.Fatal(err)
	}
	_ = rpc.FromStruct(resp, &res)
	if !res.Online || !res.Changed {
		t.Errorf("first SetOnline = %+v", res)
	}

	resp, _ = s.SetOnline(ctx, wrapperspb.Bool(true))
	_ = rpc.FromStruct(resp, &res)
	if res.Changed {
		t.Errorf("repeated SetOnline reported a change")
	}
}

func TestControlErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{worker.ErrNotInstalled, codes.FailedPrecondition},
		{worker.ErrInstallFailed, codes.Unavailable},
		{worker.ErrStopped, codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		if got := grpcstatus.Code(controlError(tt.err)); got != tt.want {
			t.Errorf("controlError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
