package grpcapi

import (
	"context"

	"google.golang.org/grpc"

	api "github.com/rmacdonaldsmith/commitlog-go/pkg/api/v1"
)

const (
	serviceName   = "log.v1.Log"
	produceMethod = "/" + serviceName + "/Produce"
	consumeMethod = "/" + serviceName + "/Consume"
)

// LogServer is the server API for the log.v1.Log service.
type LogServer interface {
	Produce(context.Context, *api.ProduceRequest) (*api.ProduceResponse, error)
	Consume(context.Context, *api.ConsumeRequest) (*api.ConsumeResponse, error)
}

// RegisterLogServer registers srv on s.
func RegisterLogServer(s grpc.ServiceRegistrar, srv LogServer) {
	s.RegisterService(&logServiceDesc, srv)
}

var logServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Produce", Handler: produceHandler},
		{MethodName: "Consume", Handler: consumeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "log/v1/log.proto",
}

func produceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(api.ProduceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogServer).Produce(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: produceMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LogServer).Produce(ctx, req.(*api.ProduceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func consumeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(api.ConsumeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogServer).Consume(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: consumeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LogServer).Consume(ctx, req.(*api.ConsumeRequest))
	}
	return interceptor(ctx, in, info, handler)
}
