package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/config"
	"github.com/BrandonDHaskell/Asamblea/internal/grpcapi"
	"github.com/BrandonDHaskell/Asamblea/internal/httpapi"
	"github.com/BrandonDHaskell/Asamblea/internal/telemetry"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the optional gRPC server and the quorum monitor",
		Run:   serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) {
	logger, cfg := commonRun()
	if err := serve(cmd.Context(), cfg, logger); err != nil {
		logger.Error("server stopped", "component", programName, "error", err)
		os.Exit(1)
	}
}

func serve(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: programName,
		Endpoint:    cfg.OTelEndpoint,
		Stdout:      cfg.OTelStdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flush traces", "component", "telemetry", "error", err)
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	svcLogger := logger.With("component", "ledger")
	proxies := service.NewProxyService(st, service.ProxyOptions{
		Logger:      svcLogger,
		Metrics:     metrics,
		MaxAttempts: cfg.LedgerMaxAttempts,
	})
	stats := service.NewStatsService(st)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger: logger,
		Addr:   cfg.HTTPAddr,
		Assemblies: service.NewAssemblyService(st, service.AssemblyOptions{
			Logger:   svcLogger,
			Metrics:  metrics,
			Location: cfg.Location,
		}),
		Records: service.NewRecordService(st),
		Proxies: proxies,
		Attendance: service.NewAttendanceService(st, service.AttendanceOptions{
			Logger:      svcLogger,
			Metrics:     metrics,
			MaxAttempts: cfg.LedgerMaxAttempts,
			Location:    cfg.Location,
		}),
		Stats:   stats,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	monitor := service.NewQuorumMonitor(st, cfg.QuorumRefresh, metrics, logger.With("component", "quorum"))
	monitor.Start(ctx)
	defer monitor.Stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "component", "http", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	grpcDone := make(chan struct{})
	if cfg.GRPCHealthAddr != "" {
		grpcSrv := grpcapi.NewServer(grpcapi.Dependencies{
			Logger:  logger.With("component", "grpc"),
			Addr:    cfg.GRPCHealthAddr,
			Stats:   stats,
			Proxies: proxies,
		})
		go func() {
			defer close(grpcDone)
			if err := grpcSrv.Serve(ctx); err != nil {
				errCh <- err
			}
		}()
	} else {
		close(grpcDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down", "component", programName)
	case runErr = <-errCh:
		stop()
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("HTTP shutdown", "component", "http", "error", err)
	}
	<-grpcDone
	return runErr
}
