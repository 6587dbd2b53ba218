// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides OpenTelemetry-based observability for FaultLab.
//
// This package initializes the OTel SDK with opinionated defaults for tracing
// and metrics, while allowing backend flexibility through exporter configuration.
// FaultLab exists to feed failures into this pipeline, so every failure ends
// up as a span error, a metric sample and a correlated log line.
//
// # Trace Backend (default: OTLP over gRPC)
//
// Spans are exported to an OTLP collector. "stdout" pretty-prints spans for
// local demos, "none" disables tracing.
//
// # Metrics Backend (default: Prometheus)
//
// The OTel Prometheus exporter registers on the same registry the service
// serves at /metrics. "stdout" pushes periodically to stdout instead.
//
// # Logging
//
// Uses slog. LoggerWithTrace injects trace_id and span_id into log entries
// for correlation.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	shutdown, err := telemetry.Init(ctx, cfg, registry)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(ctx)
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: otlp)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - FAULTLAB_ENV: environment name (default: development)
//
// # Thread Safety
//
// Init should be called once at startup. Everything else is safe for
// concurrent use.
package telemetry
