package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	api "github.com/rmacdonaldsmith/commitlog-go/pkg/api/v1"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// Client calls the log.v1.Log service.
type Client struct {
	conn *grpc.ClientConn
	opts []grpc.CallOption
}

// Dial creates a client for target using plaintext transport unless opts
// override the credentials.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", target, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection. The caller keeps ownership of conn
// only if it does not call Close.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{
		conn: conn,
		opts: []grpc.CallOption{grpc.CallContentSubtype(CodecName)},
	}
}

// Produce appends value and returns the assigned offset.
func (c *Client) Produce(ctx context.Context, value []byte) (uint64, error) {
	req := &api.ProduceRequest{Record: &api.Record{Value: value}}
	resp := new(api.ProduceResponse)
	if err := c.conn.Invoke(ctx, produceMethod, req, resp, c.opts...); err != nil {
		return 0, err
	}
	return resp.Offset, nil
}

// Consume reads the record at offset. A missing offset is reported as a
// commitlog OffsetNotFound error.
func (c *Client) Consume(ctx context.Context, offset uint64) (commitlog.Record, error) {
	req := &api.ConsumeRequest{Offset: offset}
	resp := new(api.ConsumeResponse)
	if err := c.conn.Invoke(ctx, consumeMethod, req, resp, c.opts...); err != nil {
		if status.Code(err) == codes.NotFound {
			return commitlog.Record{}, commitlog.OffsetNotFound("consume", offset)
		}
		return commitlog.Record{}, err
	}
	return resp.Record.ToRecord(), nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
