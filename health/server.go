package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Server serves the standard gRPC health protocol for a Monitor.
type Server struct {
	grpcServer      *grpc.Server
	healthServer    *health.Server
	listener        net.Listener
	gracefulTimeout time.Duration
	logger          *slog.Logger
}

// NewServer listens on addr (for example ":9096") and registers the health
// service. Monitor status changes are published to it.
func NewServer(addr string, monitor *Monitor, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	monitor.attach(healthServer)

	return &Server{
		grpcServer:      grpcServer,
		healthServer:    healthServer,
		listener:        listener,
		gracefulTimeout: 10 * time.Second,
		logger:          logger,
	}, nil
}

// Serve blocks until ctx is cancelled or the server fails. Cancellation
// stops the server gracefully and returns nil.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// GracefulStop marks every service as not serving, then stops the server,
// forcing it after the graceful timeout.
func (s *Server) GracefulStop() {
	s.healthServer.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("health server stopped gracefully")
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("graceful shutdown timeout, forcing stop")
		s.grpcServer.Stop()
	}
}

// Port returns the port the server is listening on.
// This is useful when listening on port 0.
func (s *Server) Port() int {
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
