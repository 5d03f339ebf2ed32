// Package grpcapi exposes the read side of the ledger over gRPC next to the
// standard health service.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
)

// Dependencies holds everything the gRPC server needs.
type Dependencies struct {
	Logger  *slog.Logger
	Addr    string
	Stats   *service.StatsService
	Proxies *service.ProxyService
}

// Server hosts the ledger query service and gRPC health checks.
type Server struct {
	addr       string
	logger     *slog.Logger
	grpcServer *grpc.Server
	health     *health.Server
}

// NewServer builds the gRPC server. Nothing listens until Serve.
func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(errorInterceptor(logger)),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	registerLedger(grpcServer, &ledgerServer{stats: d.Stats, proxies: d.Proxies})

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(LedgerServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		addr:       d.Addr,
		logger:     logger,
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// Serve listens on the configured address and serves until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx ends, then drains in-flight calls.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}
