package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SpawnService_Spawn_FullMethodName  = "/prn.v1.SpawnService/Spawn"
	ControlService_Send_FullMethodName = "/prn.v1.ControlService/Send"
)

// SpawnServiceClient opens spawn streams on a remote agent.
type SpawnServiceClient interface {
	Spawn(ctx context.Context, in *SpawnRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SpawnResponse], error)
}

type spawnServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSpawnServiceClient(cc grpc.ClientConnInterface) SpawnServiceClient {
	return &spawnServiceClient{cc}
}

func (c *spawnServiceClient) Spawn(ctx context.Context, in *SpawnRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SpawnResponse], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &SpawnService_ServiceDesc.Streams[0], SpawnService_Spawn_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SpawnRequest, SpawnResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// SpawnService_SpawnClient is the client side of a Spawn stream.
type SpawnService_SpawnClient = grpc.ServerStreamingClient[SpawnResponse]

// SpawnService_SpawnServer is the server side of a Spawn stream.
type SpawnService_SpawnServer = grpc.ServerStreamingServer[SpawnResponse]

// SpawnServiceServer is implemented by the remote agent.
type SpawnServiceServer interface {
	Spawn(*SpawnRequest, grpc.ServerStreamingServer[SpawnResponse]) error
}

type UnimplementedSpawnServiceServer struct{}

func (UnimplementedSpawnServiceServer) Spawn(*SpawnRequest, grpc.ServerStreamingServer[SpawnResponse]) error {
	return status.Errorf(codes.Unimplemented, "method Spawn not implemented")
}

func RegisterSpawnServiceServer(s grpc.ServiceRegistrar, srv SpawnServiceServer) {
	s.RegisterService(&SpawnService_ServiceDesc, srv)
}

func _SpawnService_Spawn_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SpawnRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SpawnServiceServer).Spawn(m, &grpc.GenericServerStream[SpawnRequest, SpawnResponse]{ServerStream: stream})
}

var SpawnService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "prn.v1.SpawnService",
	HandlerType: (*SpawnServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Spawn",
			Handler:       _SpawnService_Spawn_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "spawn.proto",
}

// ControlServiceClient delivers control commands to a process's control endpoint.
type ControlServiceClient interface {
	Send(ctx context.Context, in *ControlRequest, opts ...grpc.CallOption) (*ControlResponse, error)
}

type controlServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewControlServiceClient(cc grpc.ClientConnInterface) ControlServiceClient {
	return &controlServiceClient{cc}
}

func (c *controlServiceClient) Send(ctx context.Context, in *ControlRequest, opts ...grpc.CallOption) (*ControlResponse, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	out := new(ControlResponse)
	if err := c.cc.Invoke(ctx, ControlService_Send_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ControlServiceServer is implemented by every spawned process.
type ControlServiceServer interface {
	Send(context.Context, *ControlRequest) (*ControlResponse, error)
}

type UnimplementedControlServiceServer struct{}

func (UnimplementedControlServiceServer) Send(context.Context, *ControlRequest) (*ControlResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Send not implemented")
}

func RegisterControlServiceServer(s grpc.ServiceRegistrar, srv ControlServiceServer) {
	s.RegisterService(&ControlService_ServiceDesc, srv)
}

func _ControlService_Send_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ControlRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServiceServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ControlService_Send_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServiceServer).Send(ctx, req.(*ControlRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ControlService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "prn.v1.ControlService",
	HandlerType: (*ControlServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Send",
			Handler:    _ControlService_Send_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spawn.proto",
}
