package grpcx

import (
	"context"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type ServerOptions struct {
	Logger *slog.Logger
	// ServiceName is registered with the health server next to the overall ("") status.
	ServiceName string
}

// Server bundles a grpc.Server with its health service so callers can flip serving status on shutdown.
type Server struct {
	*grpc.Server
	Health      *health.Server
	serviceName string
}

func NewServer(opts ServerOptions, extra ...grpc.ServerOption) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serverOpts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLoggingInterceptor(logger),
		),
	}
	serverOpts = append(serverOpts, extra...)

	srv := grpc.NewServer(serverOpts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{Server: srv, Health: hs, serviceName: opts.ServiceName}
	s.SetServing(true)
	return s
}

func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", status)
	if s.serviceName != "" {
		s.Health.SetServingStatus(s.serviceName, status)
	}
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Shutdown marks the server not serving, then drains in-flight calls until ctx expires.
func (s *Server) Shutdown(ctx context.Context) {
	s.SetServing(false)
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}
