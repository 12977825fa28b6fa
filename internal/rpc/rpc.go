// Package rpc defines the floodline.v1 gRPC services. Messages are protobuf
// well-known types; structured payloads travel as google.protobuf.Struct and
// are converted to the Go types in types.go through their JSON form.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const protoFile = "floodline/v1/floodline.proto"

// unary adapts a typed server method to a grpc.MethodHandler.
func unary[S, Req, Res any](fullMethod string, fn func(S, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
