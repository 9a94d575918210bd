package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"

	pb "metricquery/api/proto/v1"
	"metricquery/internal/metric"
)

type Client struct {
	cc     *grpc.ClientConn
	query  pb.QueryClient
	health healthpb.HealthClient
}

// Dial connects to target without transport security unless opts say
// otherwise.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, query: pb.NewQueryClient(cc), health: healthpb.NewHealthClient(cc)}, nil
}

// Execute runs req on the server. Integers outside ±MaxExactInt are rejected
// before sending.
func (c *Client) Execute(ctx context.Context, req Request) ([]metric.Metric, error) {
	if err := checkRequest(req); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	in, err := toStruct(req)
	if err != nil {
		return nil, fmt.Errorf("transport: encode request: %w", err)
	}
	out, err := c.query.Execute(ctx, in)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	return resp.Metrics, nil
}

func (c *Client) Plugins(ctx context.Context) (Plugins, error) {
	var p Plugins
	out, err := c.query.Plugins(ctx, &emptypb.Empty{})
	if err != nil {
		return p, err
	}
	if err := fromStruct(out, &p); err != nil {
		return p, fmt.Errorf("transport: %w", err)
	}
	return p, nil
}

// Serving reports whether the query service answers health checks as SERVING.
func (c *Client) Serving(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: pb.QueryServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

func (c *Client) Close() error { return c.cc.Close() }
