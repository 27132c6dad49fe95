package igrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ChainClient calls ChainInternal on another instance of this service.
type ChainClient struct {
	conn *grpc.ClientConn
}

func NewChainClient(addr string, opts ...grpc.DialOption) (*ChainClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("gRPC address is required")
	}

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client: %w", err)
	}
	return &ChainClient{conn: conn}, nil
}

func (c *ChainClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *ChainClient) GetCreditBalance(ctx context.Context, userID int64) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.conn.Invoke(ctx, getCreditBalanceMethod, wrapperspb.Int64(userID), out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *ChainClient) GetRequestStatus(ctx context.Context, shareID string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, getRequestStatusMethod, wrapperspb.String(shareID), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
