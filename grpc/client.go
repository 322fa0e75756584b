package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client sends requests to a remote Inspector service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a Client for the service at target. Without opts, the connection is insecure.
func Dial(target string, opts ...grpc.DialOption) (c *Client, err error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	var conn *grpc.ClientConn
	conn, err = grpc.NewClient(target, opts...)
	if err != nil {
		return
	}

	c = &Client{conn: conn}
	return
}

// Inspect sends req and waits for the verdict.
func (c *Client) Inspect(ctx context.Context, req *InspectRequest, opts ...grpc.CallOption) (resp *InspectResponse, err error) {
	resp = new(InspectResponse)
	opts = append([]grpc.CallOption{grpc.ForceCodec(codec{})}, opts...)
	err = c.conn.Invoke(ctx, inspectFullMethod, req, resp, opts...)
	if err != nil {
		resp = nil
	}
	return
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
