// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package faultlab provides the FaultLab failure-injection service.
//
// FaultLab serves endpoints that fail on purpose: errors, runtime panics, a
// 403-tagged error, a fatal stack exhaustion and a two-lock deadlock. It
// exists to exercise error pages, alerting, tracing and log correlation
// against known failures.
//
// # Usage
//
//	cfg, err := faultlab.LoadConfig("faultlab.yaml")
//	if err != nil {
//	    return err
//	}
//	svc, err := faultlab.New(cfg, slog.Default())
//	if err != nil {
//	    return err
//	}
//	return svc.Run(ctx)
//
// # Warning
//
// GET /stack-overflow terminates the process. Two concurrent deadlock
// requests block their goroutines until the process exits. Never expose
// FaultLab outside a test environment.
package faultlab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/handlers"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/middleware"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/observability"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/routes"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/telemetry"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/views"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the FaultLab service.
//
// # Thread Safety
//
// Run blocks and should be called once per instance. Router is safe to call
// at any time.
type Service interface {
	// Run serves HTTP until ctx is cancelled or the server fails.
	//
	// # Description
	//
	// On cancellation the server is shut down gracefully. Requests stuck in
	// a deadlock never finish, so once ShutdownTimeout elapses remaining
	// connections are closed. Telemetry is flushed before Run returns.
	//
	// # Outputs
	//
	//   - error: Non-nil if the listener fails. Cancellation returns nil.
	Run(ctx context.Context) error

	// Router returns the configured Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service.
//
// # Fields
//
//   - config: Service configuration with defaults applied
//   - logger: Structured logger
//   - router: Gin HTTP engine
//   - registry: Prometheus registry served at /metrics
//   - deadlocker: Shared lock pair for the deadlock endpoints
//   - telemetryShutdown: Flushes and stops the OTel providers
type service struct {
	config            Config
	logger            *slog.Logger
	router            *gin.Engine
	registry          *prometheus.Registry
	deadlocker        *failures.Deadlocker
	telemetryShutdown func(context.Context) error
}

var _ Service = (*service)(nil)

// =============================================================================
// Constructor
// =============================================================================

// New creates a FaultLab Service.
//
// # Description
//
// New initializes all components:
//  1. Applies defaults and validates the configuration
//  2. Applies the goroutine stack cap, if configured
//  3. Creates a Prometheus registry with Go and process collectors
//  4. Initializes OpenTelemetry against that registry
//  5. Creates failure metrics and the shared Deadlocker
//  6. Builds the router and registers the routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - logger: Structured logger. nil uses slog.Default().
//
// # Outputs
//
//   - Service: Ready-to-run service
//   - error: Non-nil if configuration or initialization fails
//
// # Limitations
//
//   - MaxStackBytes is process-wide; the last New wins.
//   - Telemetry providers are installed globally.
func New(cfg Config, logger *slog.Logger) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &service{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.MaxStackBytes > 0 {
		debug.SetMaxStack(cfg.MaxStackBytes)
		logger.Info("Goroutine stack limit set", "max_stack_bytes", cfg.MaxStackBytes)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	shutdown, err := telemetry.Init(context.Background(), cfg.Telemetry, s.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.telemetryShutdown = shutdown

	if err := s.initRouter(); err != nil {
		s.cleanup()
		return nil, err
	}

	logger.Info("FaultLab initialized",
		"port", cfg.Port,
		"deadlock_hold", cfg.DeadlockHold.String(),
		"rate_limit", cfg.RateLimit,
		"trace_exporter", cfg.Telemetry.TraceExporter,
		"metric_exporter", cfg.Telemetry.MetricExporter,
	)
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (s *service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(s.config.Port)))
	if err != nil {
		s.cleanup()
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}
	return s.serve(ctx, ln)
}

// serve runs the server on ln until ctx is done.
func (s *service) serve(ctx context.Context, ln net.Listener) error {
	defer s.cleanup()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting FaultLab server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down FaultLab server", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Graceful shutdown incomplete, closing connections",
				"error", err,
				"deadlock", s.deadlocker.Status(),
			)
			_ = srv.Close()
		}
		return nil
	})

	return g.Wait()
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initRouter builds the engine and registers every route.
//
// Middleware order, outermost first: gin logger and recovery, otelgin
// request spans, OTel HTTP metrics, the error pages. The error middleware
// sits innermost so the span and metrics see the final status.
func (s *service) initRouter() error {
	failureMetrics := observability.NewFailureMetrics(s.registry)
	s.deadlocker = failures.NewDeadlocker(s.config.DeadlockHold, s.logger, failureMetrics)

	httpMetrics, err := telemetry.NewMetrics(otel.Meter("faultlab"))
	if err != nil {
		return fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	s.router = gin.Default()
	if err := views.Install(s.router); err != nil {
		return err
	}
	s.router.Use(otelgin.Middleware(s.config.Telemetry.ServiceName))
	s.router.Use(telemetry.MetricsMiddleware(httpMetrics))
	s.router.Use(middleware.ErrorPages(failureMetrics, s.logger))

	routes.SetupRoutes(s.router, routes.Deps{
		Triggers:    handlers.NewTriggers(failureMetrics, s.deadlocker, s.logger),
		Deadlocker:  s.deadlocker,
		Gatherer:    s.registry,
		Limiter:     middleware.NewLimiter(s.config.RateLimit, s.config.RateBurst),
		RateLimited: failureMetrics,
	})
	return nil
}

// cleanup flushes telemetry. Safe to call more than once.
func (s *service) cleanup() {
	if s.telemetryShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetryShutdown(ctx); err != nil {
		s.logger.Warn("Telemetry shutdown failed", "error", err)
	}
	s.telemetryShutdown = nil
}
