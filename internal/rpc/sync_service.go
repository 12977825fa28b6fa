package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	SyncService_Enqueue_FullMethodName       = "/floodline.v1.SyncService/Enqueue"
	SyncService_ListActions_FullMethodName   = "/floodline.v1.SyncService/ListActions"
	SyncService_Flush_FullMethodName         = "/floodline.v1.SyncService/Flush"
	SyncService_GetSyncState_FullMethodName  = "/floodline.v1.SyncService/GetSyncState"
	SyncService_SetOnline_FullMethodName     = "/floodline.v1.SyncService/SetOnline"
	SyncService_GetSnapshot_FullMethodName   = "/floodline.v1.SyncService/GetSnapshot"
	SyncService_SaveSnapshot_FullMethodName  = "/floodline.v1.SyncService/SaveSnapshot"
	SyncService_ClearSnapshot_FullMethodName = "/floodline.v1.SyncService/ClearSnapshot"
	SyncService_GetSettings_FullMethodName   = "/floodline.v1.SyncService/GetSettings"
	SyncService_SaveSettings_FullMethodName  = "/floodline.v1.SyncService/SaveSettings"
	SyncService_WatchEvents_FullMethodName   = "/floodline.v1.SyncService/WatchEvents"
)

// SyncServiceServer is the server API for the queue synchronizer.
type SyncServiceServer interface {
	// Enqueue takes an EnqueueRequest and returns the new action id.
	Enqueue(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	// ListActions returns an ActionList.
	ListActions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Flush returns a FlushResult.
	Flush(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// GetSyncState returns a SyncState.
	GetSyncState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// SetOnline overrides connectivity and returns a SetOnlineResult.
	SetOnline(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
	GetSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// SaveSnapshot merges a partial snapshot and returns the result.
	SaveSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearSnapshot(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetSettings(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SaveSettings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// WatchEvents streams bus events whose kind starts with the given prefix.
	WatchEvents(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterSyncServiceServer registers srv with s.
func RegisterSyncServiceServer(s grpc.ServiceRegistrar, srv SyncServiceServer) {
	s.RegisterService(&SyncService_ServiceDesc, srv)
}

func _SyncService_WatchEvents_Handler(srv any, stream grpc.ServerStream) error {
	m := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SyncServiceServer).WatchEvents(m, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}

// SyncService_ServiceDesc is the grpc.ServiceDesc for SyncService.
var SyncService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "floodline.v1.SyncService",
	HandlerType: (*SyncServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enqueue", Handler: unary(SyncService_Enqueue_FullMethodName, SyncServiceServer.Enqueue)},
		{MethodName: "ListActions", Handler: unary(SyncService_ListActions_FullMethodName, SyncServiceServer.ListActions)},
		{MethodName: "Flush", Handler: unary(SyncService_Flush_FullMethodName, SyncServiceServer.Flush)},
		{MethodName: "GetSyncState", Handler: unary(SyncService_GetSyncState_FullMethodName, SyncServiceServer.GetSyncState)},
		{MethodName: "SetOnline", Handler: unary(SyncService_SetOnline_FullMethodName, SyncServiceServer.SetOnline)},
		{MethodName: "GetSnapshot", Handler: unary(SyncService_GetSnapshot_FullMethodName, SyncServiceServer.GetSnapshot)},
		{MethodName: "SaveSnapshot", Handler: unary(SyncService_SaveSnapshot_FullMethodName, SyncServiceServer.SaveSnapshot)},
		{MethodName: "ClearSnapshot", Handler: unary(SyncService_ClearSnapshot_FullMethodName, SyncServiceServer.ClearSnapshot)},
		{MethodName: "GetSettings", Handler: unary(SyncService_GetSettings_FullMethodName, SyncServiceServer.GetSettings)},
		{MethodName: "SaveSettings", Handler: unary(SyncService_SaveSettings_FullMethodName, SyncServiceServer.SaveSettings)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       _SyncService_WatchEvents_Handler,
			ServerStreams: true,
		},
	},
	Metadata: protoFile,
}

// SyncServiceClient is the client API for SyncService.
type SyncServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSyncServiceClient creates a client over cc.
func NewSyncServiceClient(cc grpc.ClientConnInterface) *SyncServiceClient {
	return &SyncServiceClient{cc: cc}
}

func (c *SyncServiceClient) Enqueue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, SyncService_Enqueue_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) ListActions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_ListActions_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) Flush(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_Flush_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) GetSyncState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_GetSyncState_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) SetOnline(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_SetOnline_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) GetSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_GetSnapshot_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) SaveSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_SaveSnapshot_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) ClearSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, SyncService_ClearSnapshot_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) GetSettings(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_GetSettings_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) SaveSettings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_SaveSettings_FullMethodName, in, opts...)
}

func (c *SyncServiceClient) WatchEvents(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &SyncService_ServiceDesc.Streams[0], SyncService_WatchEvents_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
