package client

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/floodline/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn  *grpc.ClientConn
	Sync  *rpc.SyncServiceClient
	Cache *rpc.CacheServiceClient
}

// New dials the daemon's Unix domain socket and returns typed service clients.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return &Client{
		conn:  conn,
		Sync:  rpc.NewSyncServiceClient(conn),
		Cache: rpc.NewCacheServiceClient(conn),
	}, nil
}

// Ping reports whether the daemon answers a real RPC within timeout.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.Sync.GetSyncState(ctx, &emptypb.Empty{})
	return err
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
