package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/worker"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CacheService implements the CacheService gRPC service. Control requests go
// to the worker over its control channel.
type CacheService struct {
	lifecycle *worker.Lifecycle
	gateway   string
}

// NewCacheService creates a new cache service. gateway is the address the
// worker's HTTP gateway listens on, reported by GetWorkerState.
func NewCacheService(l *worker.Lifecycle, gateway string) *CacheService {
	return &CacheService{lifecycle: l, gateway: gateway}
}

func (s *CacheService) ListCaches(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	infos, err := s.lifecycle.Manager().Caches()
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list caches: %v", err)
	}
	out := rpc.CacheList{Caches: make([]rpc.CacheInfo, 0, len(infos))}
	for _, c := range infos {
		out.Caches = append(out.Caches, rpc.CacheInfo{Name: c.Name, Entries: c.Entries, Current: c.Current})
	}
	return toStruct(out)
}

func (s *CacheService) RefreshManifest(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.lifecycle.Send(ctx, worker.ControlRefreshManifest); err != nil {
		return nil, controlError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *CacheService) SkipWaiting(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.lifecycle.Send(ctx, worker.ControlSkipWaiting); err != nil {
		return nil, controlError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *CacheService) Push(_ context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	n := s.lifecycle.Manager().HandlePush(req.GetValue())
	return toStruct(n)
}

func (s *CacheService) ClickNotification(_ context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	var click rpc.NotificationClick
	if err := rpc.FromStruct(req, &click); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "decode click: %v", err)
	}
	var data worker.NotificationData
	if len(click.Data) > 0 {
		if err := json.Unmarshal(click.Data, &data); err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "decode notification data: %v", err)
		}
	}
	return wrapperspb.String(s.lifecycle.Manager().HandleNotificationClick(click.Action, data)), nil
}

func (s *CacheService) GetWorkerState(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	m := s.lifecycle.Manager()
	return toStruct(rpc.WorkerState{
		Phase:         string(s.lifecycle.Phase()),
		Version:       m.Version(),
		ActiveVersion: m.ActiveVersion(),
		Names:         m.Names().All(),
		Gateway:       s.gateway,
	})
}

func controlError(err error) error {
	switch {
	case errors.Is(err, worker.ErrNotInstalled):
		return grpcstatus.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, worker.ErrInstallFailed):
		return grpcstatus.Error(codes.Unavailable, err.Error())
	case errors.Is(err, worker.ErrStopped):
		return grpcstatus.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return grpcstatus.FromContextError(err).Err()
	}
	return grpcstatus.Errorf(codes.Internal, "%v", err)
}
