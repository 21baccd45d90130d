// Package grpc implements the gRPC transport for krishisahayak.
//
// The server carries the standard grpc.health.v1 service and reflection, so
// fleet tooling (grpc_health_probe, grpcurl) can watch the assistant the same
// way it watches other edge services. The daemon flips the serving status
// together with its HTTP readiness.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/transport"
)

// ServiceName is the health service name reported for the assistant.
const ServiceName = "krishisahayak.Assistant"

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	logger *slog.Logger
	health *health.Server

	mu     sync.Mutex
	server *grpc.Server
	lis    net.Listener
}

// New creates a new gRPC transport on the configured port.
func New(cfg config.GRPCConfig, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		port:   cfg.Port,
		logger: logger.With("transport", "grpc"),
		health: health.NewServer(),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// SetServing flips the overall and assistant health status.
func (t *Transport) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	t.health.SetServingStatus("", status)
	t.health.SetServingStatus(ServiceName, status)
}

// Addr returns the bound address once Listen has started, or nil.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lis == nil {
		return nil
	}
	return t.lis.Addr()
}

// Listen starts the gRPC server. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return t.Serve(ctx, lis, svc)
}

// Serve runs the server on an existing listener.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, svc transport.Service) error {
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, t.health)
	reflection.Register(server)

	t.mu.Lock()
	t.server = server
	t.lis = lis
	t.mu.Unlock()

	t.SetServing(true)
	snap := svc.Snapshot()
	t.logger.Info("grpc transport listening",
		"addr", lis.Addr().String(),
		"session_state", snap.State,
		"language", snap.Language)

	go func() {
		<-ctx.Done()
		t.logger.Info("grpc transport shutting down")
		t.health.Shutdown()
		server.GracefulStop()
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.health.Shutdown()
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()
	if server != nil {
		server.GracefulStop()
	}
	return nil
}
