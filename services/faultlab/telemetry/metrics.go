// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the OTel HTTP instruments for FaultLab.
//
// Description:
//
//	Request count, latency and in-flight requests. Deadlocked requests never
//	finish, so HTTPActiveRequests is the instrument that shows them.
//	All metrics use the "faultlab_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// HTTPRequestsTotal counts requests by method, route and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks requests currently being served.
	HTTPActiveRequests metric.Int64UpDownCounter
}

// NewMetrics creates the HTTP instruments on the given meter.
//
// Inputs:
//
//	meter - The OTel meter to use for instrument creation.
//
// Outputs:
//
//	*Metrics - The instruments.
//	error - Non-nil if any instrument could not be created.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"faultlab_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"faultlab_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"faultlab_http_active_requests",
		metric.WithDescription("Currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_active_requests: %w", err)
	}

	return m, nil
}
