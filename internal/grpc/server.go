package igrpc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"sixdegrees-service/internal/repositories"
)

type ChainGRPCServer struct {
	users    repositories.UserRepository
	requests repositories.RequestRepository
}

func NewChainGRPCServer(users repositories.UserRepository, requests repositories.RequestRepository) *ChainGRPCServer {
	return &ChainGRPCServer{users: users, requests: requests}
}

func StartGRPCServer(ctx context.Context, addr string, impl ChainInternalServer) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer()
	RegisterChainInternalServer(srv, impl)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	go func() {
		slog.Info("gRPC server listening", "addr", addr)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	return srv, nil
}

func (s *ChainGRPCServer) GetCreditBalance(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	credits, err := s.users.GetCredits(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.Errorf(codes.NotFound, "user %d not found", req.GetValue())
		}
		return nil, status.Errorf(codes.Internal, "failed to load credits: %v", err)
	}
	return wrapperspb.Int64(credits), nil
}

func (s *ChainGRPCServer) GetRequestStatus(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "share id is required")
	}
	connReq, err := s.requests.GetByShareID(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.Errorf(codes.NotFound, "request %q not found", req.GetValue())
		}
		return nil, status.Errorf(codes.Internal, "failed to load request: %v", err)
	}
	return wrapperspb.String(connReq.Status), nil
}
