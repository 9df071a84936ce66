//go:build protogen

package entitlements

import (
	"context"
	"time"

	"github.com/ojalink/ojalink/libs/grpcx"
	entitlementsv1 "github.com/ojalink/ojalink/protos/gen/entitlements/v1"
	"google.golang.org/grpc"
)

// Client resolves an account's plan limits from the billing service.
type Client struct {
	conn   *grpc.ClientConn
	client entitlementsv1.EntitlementsServiceClient
}

func NewClient(addr string) (*Client, error) {
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:   conn,
		client: entitlementsv1.NewEntitlementsServiceClient(conn),
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) GetEntitlements(ctx context.Context, accountID string) (*entitlementsv1.EntitlementsResponse, error) {
	return c.client.GetEntitlements(ctx, &entitlementsv1.EntitlementsRequest{
		AccountId: accountID,
	})
}
