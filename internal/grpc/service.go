package igrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "sixdegrees.internal.ChainInternal"

	getCreditBalanceMethod = "/" + ServiceName + "/GetCreditBalance"
	getRequestStatusMethod = "/" + ServiceName + "/GetRequestStatus"
)

// ChainInternalServer is exposed to other backend services only.
type ChainInternalServer interface {
	GetCreditBalance(ctx context.Context, userID *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error)
	GetRequestStatus(ctx context.Context, shareID *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var ChainInternalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChainInternalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCreditBalance", Handler: getCreditBalanceHandler},
		{MethodName: "GetRequestStatus", Handler: getRequestStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sixdegrees/internal.proto",
}

func RegisterChainInternalServer(s grpc.ServiceRegistrar, srv ChainInternalServer) {
	s.RegisterService(&ChainInternalServiceDesc, srv)
}

func getCreditBalanceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChainInternalServer).GetCreditBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getCreditBalanceMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChainInternalServer).GetCreditBalance(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getRequestStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChainInternalServer).GetRequestStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRequestStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChainInternalServer).GetRequestStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
