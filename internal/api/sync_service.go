package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/connectivity"
	"github.com/matheus3301/floodline/internal/logging"
	"github.com/matheus3301/floodline/internal/outbox"
	"github.com/matheus3301/floodline/internal/queue"
	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/snapshot"
	"github.com/matheus3301/floodline/internal/status"
	"github.com/matheus3301/floodline/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// recentRuns is how many sync runs GetSyncState reports.
const recentRuns = 5

// SyncService implements the SyncService gRPC service.
type SyncService struct {
	queue     *queue.Queue
	sync      *outbox.Synchronizer
	machine   *status.Machine
	monitor   *connectivity.Monitor
	snapshots *snapshot.Store
	db        *store.DB
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(q *queue.Queue, s *outbox.Synchronizer, m *status.Machine, mon *connectivity.Monitor, snaps *snapshot.Store, db *store.DB, b *bus.Bus, logger *zap.Logger) *SyncService {
	return &SyncService{
		queue:     q,
		sync:      s,
		machine:   m,
		monitor:   mon,
		snapshots: snaps,
		db:        db,
		bus:       b,
		logger:    logging.OrNop(logger),
	}
}

func (s *SyncService) Enqueue(_ context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	var in rpc.EnqueueRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	kind, err := queue.ParseKind(in.Type)
	if err != nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}
	if len(in.Data) == 0 {
		in.Data = json.RawMessage("{}")
	}
	id, err := s.queue.Enqueue(kind, in.Data)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "enqueue: %v", err)
	}
	// Reports made locally are readable offline before they sync.
	if kind == queue.KindReport {
		if _, err := s.snapshots.AddUserReport(in.Data); err != nil {
			s.logger.Warn("failed to record local report", zap.String("id", id), zap.Error(err))
		}
	}
	return wrapperspb.String(id), nil
}

func (s *SyncService) ListActions(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	actions := s.queue.List()
	out := rpc.ActionList{Actions: make([]rpc.Action, 0, len(actions))}
	for _, a := range actions {
		out.Actions = append(out.Actions, actionToRPC(a))
	}
	return toStruct(out)
}

func (s *SyncService) Flush(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	// A flush runs to completion even if the caller goes away.
	res, err := s.sync.Flush(context.WithoutCancel(ctx))
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "flush: %v", err)
	}
	return toStruct(rpc.FlushResult{
		Attempted: res.Attempted,
		Synced:    res.Synced,
		Retried:   res.Retried,
		Dropped:   res.Dropped,
		Remaining: res.Remaining,
		Status:    string(res.Status),
		Coalesced: res.Coalesced,
		Skipped:   res.Skipped,
	})
}

func (s *SyncService) GetSyncState(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap := s.machine.Snapshot()
	state := rpc.SyncState{
		Status:    string(snap.Status),
		Online:    snap.Online,
		LastError: snap.LastError,
		LastSync:  snap.LastSync,
		Pending:   s.queue.Len(),
		Running:   s.sync.Running(),
		Runs:      []rpc.SyncRun{},
	}
	runs, err := s.db.RecentSyncRuns(recentRuns)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list sync runs: %v", err)
	}
	for _, r := range runs {
		state.Runs = append(state.Runs, syncRunToRPC(r))
	}
	return toStruct(state)
}

func (s *SyncService) SetOnline(_ context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	online := req.GetValue()
	changed := s.monitor.Set(online)
	s.logger.Info("connectivity override", zap.Bool("online", online), zap.Bool("changed", changed))
	return toStruct(rpc.SetOnlineResult{Online: online, Changed: changed})
}

func (s *SyncService) GetSnapshot(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, ok := s.snapshots.Load()
	return snapshotToStruct(snap, !ok)
}

func (s *SyncService) SaveSnapshot(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var patch snapshot.Patch
	if err := rpc.FromStruct(req, &patch); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "decode snapshot: %v", err)
	}
	snap, err := s.snapshots.Save(patch)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "save snapshot: %v", err)
	}
	return snapshotToStruct(snap, false)
}

func (s *SyncService) ClearSnapshot(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.snapshots.Clear(); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "clear snapshot: %v", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *SyncService) GetSettings(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(settingsToRPC(s.snapshots.Settings()))
}

// SaveSettings overlays the fields present in the request on the stored settings.
func (s *SyncService) SaveSettings(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	current := s.snapshots.Settings()
	if err := rpc.FromStruct(req, &current); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "decode settings: %v", err)
	}
	saved, err := s.snapshots.SaveSettings(current)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "save settings: %v", err)
	}
	return toStruct(settingsToRPC(saved))
}

func (s *SyncService) WatchEvents(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ch, unsub := s.bus.Subscribe(req.GetValue(), 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			msg, err := eventToStruct(evt)
			if err != nil {
				s.logger.Warn("dropping unencodable event", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func actionToRPC(a queue.Action) rpc.Action {
	return rpc.Action{
		ID:         a.ID,
		Type:       string(a.Kind),
		Data:       a.Payload,
		Timestamp:  a.CreatedAt,
		RetryCount: a.RetryCount,
	}
}

func syncRunToRPC(r store.SyncRun) rpc.SyncRun {
	return rpc.SyncRun{
		StartedAt:  unixMilli(r.StartedAt),
		FinishedAt: unixMilli(r.FinishedAt),
		Synced:     r.Synced,
		Retried:    r.Retried,
		Dropped:    r.Dropped,
		Remaining:  r.Remaining,
		Status:     r.Status,
		Error:      r.Error,
	}
}

func settingsToRPC(st snapshot.Settings) rpc.Settings {
	return rpc.Settings{
		OfflineMode: st.OfflineMode,
		AutoSync:    st.AutoSync,
		CacheMaps:   st.CacheMaps,
		UpdatedAt:   st.UpdatedAt,
	}
}

func snapshotToStruct(snap snapshot.Snapshot, absent bool) (*structpb.Struct, error) {
	out := rpc.Snapshot{LastSync: snap.LastSync, Absent: absent}
	var err error
	if out.Alerts, err = json.Marshal(nonNil(snap.Alerts)); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "encode alerts: %v", err)
	}
	if out.MapData, err = json.Marshal(nonNil(snap.MapData)); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "encode map data: %v", err)
	}
	if out.UserReports, err = json.Marshal(nonNil(snap.UserReports)); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "encode user reports: %v", err)
	}
	out.WeatherData = snap.WeatherData
	return toStruct(out)
}

func eventToStruct(evt bus.Event) (*structpb.Struct, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, err
	}
	return rpc.ToStruct(rpc.Event{
		ID:         uuid.New().String(),
		Kind:       evt.Kind,
		OccurredAt: evt.Timestamp,
		Payload:    payload,
	})
}

func toStruct(v any) (*structpb.Struct, error) {
	s, err := rpc.ToStruct(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return s, nil
}

func nonNil(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}

func unixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
