package transport

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "metricquery/api/proto/v1"
	"metricquery/internal/logging"
)

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

// StartServer listens on port and registers svc with the standard health
// service. Call Serve to accept connections.
func StartServer(port int, svc pb.QueryServer) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return NewServer(lis, svc), nil
}

func NewServer(lis net.Listener, svc pb.QueryServer, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		lis:    lis,
	}
	pb.RegisterQueryServer(s.grpc, svc)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(pb.QueryServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Serve() error {
	logging.With("transport").Info("grpc listening", "addr", s.lis.Addr().String())
	return s.grpc.Serve(s.lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
