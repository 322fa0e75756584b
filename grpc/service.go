package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName       = "secwaf.Inspector"
	inspectMethodName = "Inspect"
	inspectFullMethod = "/" + serviceName + "/" + inspectMethodName
)

// InspectorServer is the server API for the Inspector service.
type InspectorServer interface {
	Inspect(ctx context.Context, req *InspectRequest) (*InspectResponse, error)
}

func inspectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InspectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(InspectorServer).Inspect(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: inspectFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InspectorServer).Inspect(ctx, req.(*InspectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// inspectorServiceDesc describes the Inspector service of secwaf/inspector.proto.
var inspectorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: inspectMethodName,
			Handler:    inspectHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "secwaf/inspector.proto",
}

// RegisterInspectorServer registers srv with s.
func RegisterInspectorServer(s *grpc.Server, srv InspectorServer) {
	s.RegisterService(&inspectorServiceDesc, srv)
}
