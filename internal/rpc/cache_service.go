package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	CacheService_ListCaches_FullMethodName        = "/floodline.v1.CacheService/ListCaches"
	CacheService_RefreshManifest_FullMethodName   = "/floodline.v1.CacheService/RefreshManifest"
	CacheService_SkipWaiting_FullMethodName       = "/floodline.v1.CacheService/SkipWaiting"
	CacheService_Push_FullMethodName              = "/floodline.v1.CacheService/Push"
	CacheService_ClickNotification_FullMethodName = "/floodline.v1.CacheService/ClickNotification"
	CacheService_GetWorkerState_FullMethodName    = "/floodline.v1.CacheService/GetWorkerState"
)

// CacheServiceServer is the server API for the cache worker.
type CacheServiceServer interface {
	// ListCaches returns a CacheList.
	ListCaches(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RefreshManifest(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	SkipWaiting(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	// Push takes a raw push payload and returns the Notification shown.
	Push(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	// ClickNotification takes a NotificationClick and returns the navigation target.
	ClickNotification(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	// GetWorkerState returns a WorkerState.
	GetWorkerState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCacheServiceServer registers srv with s.
func RegisterCacheServiceServer(s grpc.ServiceRegistrar, srv CacheServiceServer) {
	s.RegisterService(&CacheService_ServiceDesc, srv)
}

// CacheService_ServiceDesc is the grpc.ServiceDesc for CacheService.
var CacheService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "floodline.v1.CacheService",
	HandlerType: (*CacheServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListCaches", Handler: unary(CacheService_ListCaches_FullMethodName, CacheServiceServer.ListCaches)},
		{MethodName: "RefreshManifest", Handler: unary(CacheService_RefreshManifest_FullMethodName, CacheServiceServer.RefreshManifest)},
		{MethodName: "SkipWaiting", Handler: unary(CacheService_SkipWaiting_FullMethodName, CacheServiceServer.SkipWaiting)},
		{MethodName: "Push", Handler: unary(CacheService_Push_FullMethodName, CacheServiceServer.Push)},
		{MethodName: "ClickNotification", Handler: unary(CacheService_ClickNotification_FullMethodName, CacheServiceServer.ClickNotification)},
		{MethodName: "GetWorkerState", Handler: unary(CacheService_GetWorkerState_FullMethodName, CacheServiceServer.GetWorkerState)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// CacheServiceClient is the client API for CacheService.
type CacheServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCacheServiceClient creates a client over cc.
func NewCacheServiceClient(cc grpc.ClientConnInterface) *CacheServiceClient {
	return &CacheServiceClient{cc: cc}
}

func (c *CacheServiceClient) ListCaches(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, CacheService_ListCaches_FullMethodName, in, opts...)
}

func (c *CacheServiceClient) RefreshManifest(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CacheService_RefreshManifest_FullMethodName, in, opts...)
}

func (c *CacheServiceClient) SkipWaiting(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CacheService_SkipWaiting_FullMethodName, in, opts...)
}

func (c *CacheServiceClient) Push(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, CacheService_Push_FullMethodName, in, opts...)
}

func (c *CacheServiceClient) ClickNotification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, CacheService_ClickNotification_FullMethodName, in, opts...)
}

func (c *CacheServiceClient) GetWorkerState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, CacheService_GetWorkerState_FullMethodName, in, opts...)
}
