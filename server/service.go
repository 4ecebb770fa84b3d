package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "vibe6502.Debugger"

// DebuggerServer is the server API for the debugger service. Messages are
// protobuf well-known types so the default codec carries them as is.
type DebuggerServer interface {
	GetCPUState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ReadMemory(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)
	ReadMemoryBlock(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	WriteMemory(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	LoadProgram(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	ResetSystem(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Resume(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Step(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterDebuggerServer registers srv on s.
func RegisterDebuggerServer(s grpc.ServiceRegistrar, srv DebuggerServer) {
	s.RegisterService(&debuggerServiceDesc, srv)
}

var debuggerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DebuggerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetCPUState", func(s DebuggerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.GetCPUState(ctx, in)
		}),
		unary("ReadMemory", func(s DebuggerServer, ctx context.Context, in *wrapperspb.UInt32Value) (any, error) {
			return s.ReadMemory(ctx, in)
		}),
		unary("ReadMemoryBlock", func(s DebuggerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.ReadMemoryBlock(ctx, in)
		}),
		unary("WriteMemory", func(s DebuggerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.WriteMemory(ctx, in)
		}),
		unary("LoadProgram", func(s DebuggerServer, ctx context.Context, in *wrapperspb.BytesValue) (any, error) {
			return s.LoadProgram(ctx, in)
		}),
		unary("ResetSystem", func(s DebuggerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.ResetSystem(ctx, in)
		}),
		unary("Pause", func(s DebuggerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Pause(ctx, in)
		}),
		unary("Resume", func(s DebuggerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Resume(ctx, in)
		}),
		unary("Step", func(s DebuggerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Step(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

// unary builds the method descriptor plumbing protoc would otherwise generate.
func unary[Req any](name string, call func(DebuggerServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DebuggerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DebuggerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
