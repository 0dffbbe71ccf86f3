// Package server provides the gRPC control server lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/solatis/pactkeeper/internal/core/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// MockServerService is the health service name reporting mock endpoint readiness.
const MockServerService = "pactkeeper.MockServer"

// ControlServer exposes grpc.health.v1 for readiness probes of a running mock server.
// The overall status ("") and MockServerService start NOT_SERVING.
type ControlServer struct {
	server *grpc.Server
	health *health.Server
	cfg    config.MockProviderConfig

	mu       sync.Mutex
	listener net.Listener
}

// NewControlServer creates the control server bound to cfg.Host and
// cfg.ControlPort. It does not listen until Listen or Start.
func NewControlServer(cfg config.MockProviderConfig) *ControlServer {
	server := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(MockServerService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &ControlServer{
		server: server,
		health: healthServer,
		cfg:    cfg,
	}
}

// SetServing flips both health entries between SERVING and NOT_SERVING.
func (s *ControlServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(MockServerService, status)
	slog.Debug("server: health status changed", "status", status.String())
}

// Listen binds the control port. Separate from Serve so callers know the
// address before serving starts.
func (s *ControlServer) Listen() (net.Addr, error) {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.ControlPort))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return listener.Addr(), nil
}

// Start binds the control port if needed and serves until Shutdown.
func (s *ControlServer) Start(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		listener = s.listener
		s.mu.Unlock()
	}

	slog.Info("server: control server listening", "addr", listener.Addr().String())
	return s.server.Serve(listener)
}

// Shutdown marks the server NOT_SERVING and stops gracefully within the
// configured shutdown timeout, forcing a stop when it elapses.
func (s *ControlServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop: %w", ctx.Err())
	}
}
