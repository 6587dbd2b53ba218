// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for FaultLab.
//
// # Description
//
// This package counts what the failure triggers produce so dashboards and
// alerts can be tested against known traffic. Metrics include:
//   - Trigger counters (by operation)
//   - Failure counters (by kind, status and source)
//   - Deadlock phase gauges (by operation and phase)
//   - Rate-limited request counter
//
// # Integration
//
// Metrics are registered on the registry passed to NewFailureMetrics and
// exposed via /metrics together with the Go runtime collectors, so
// go_goroutines climbs while deadlocked requests pile up.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"strconv"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "faultlab"

// Subsystem for trigger metrics
const triggersSubsystem = "triggers"

// Failure sources used as the "source" label.
const (
	// SourceError is a failure returned as an error value.
	SourceError = "error"

	// SourcePanic is a failure recovered from a panic.
	SourcePanic = "panic"
)

// FailureMetrics holds all Prometheus metrics for the failure triggers.
//
// # Description
//
// Provides counters and gauges for monitoring trigger traffic. Create one
// per registry via NewFailureMetrics().
//
// # Fields
//
//   - TriggersTotal: Counter of trigger invocations by operation
//   - FailuresTotal: Counter of rendered failures by kind, status and source
//   - DeadlockPhase: Gauge of in-flight deadlock invocations by phase
//   - DeadlockAcquiredTotal: Counter of deadlock invocations that got both locks
//   - RateLimitedTotal: Counter of requests rejected by the rate limiter
//
// # Thread Safety
//
// All operations are thread-safe.
type FailureMetrics struct {
	// TriggersTotal counts trigger invocations.
	// Labels: operation (GenericFailure, DeadlockOne, etc.)
	TriggersTotal *prometheus.CounterVec

	// FailuresTotal counts failures rendered by the error middleware.
	// Labels: kind, status, source (error, panic)
	FailuresTotal *prometheus.CounterVec

	// DeadlockPhase tracks deadlock invocations currently in a phase.
	// Labels: operation, phase (holding_first_lock, waiting_on_second_lock)
	DeadlockPhase *prometheus.GaugeVec

	// DeadlockAcquiredTotal counts invocations that acquired both locks.
	// Labels: operation
	DeadlockAcquiredTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected with 429.
	RateLimitedTotal prometheus.Counter
}

// NewFailureMetrics creates and registers all failure metrics.
//
// # Inputs
//
//   - reg: Registerer to register on. Must not be nil.
//
// # Outputs
//
//   - *FailureMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice with the same registerer (duplicate registration).
func NewFailureMetrics(reg prometheus.Registerer) *FailureMetrics {
	factory := promauto.With(reg)

	return &FailureMetrics{
		TriggersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: triggersSubsystem,
				Name:      "invocations_total",
				Help:      "Total number of trigger invocations by operation",
			},
			[]string{"operation"},
		),

		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: triggersSubsystem,
				Name:      "failures_total",
				Help:      "Total failures rendered by kind, HTTP status and source",
			},
			[]string{"kind", "status", "source"},
		),

		DeadlockPhase: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "deadlock",
				Name:      "invocations_in_phase",
				Help:      "Deadlock invocations currently in each lock phase",
			},
			[]string{"operation", "phase"},
		),

		DeadlockAcquiredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "deadlock",
				Name:      "acquired_both_total",
				Help:      "Deadlock invocations that acquired both locks and returned",
			},
			[]string{"operation"},
		),

		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: triggersSubsystem,
				Name:      "rate_limited_total",
				Help:      "Total trigger requests rejected by the rate limiter",
			},
		),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordTrigger records one invocation of a trigger.
func (m *FailureMetrics) RecordTrigger(op failures.Operation) {
	m.TriggersTotal.WithLabelValues(string(op)).Inc()
}

// RecordFailure records one rendered failure.
//
// # Inputs
//
//   - kind: Classified failure kind.
//   - status: HTTP status written.
//   - panicked: True if the failure was recovered from a panic.
func (m *FailureMetrics) RecordFailure(kind failures.Kind, status int, panicked bool) {
	source := SourceError
	if panicked {
		source = SourcePanic
	}
	m.FailuresTotal.WithLabelValues(string(kind), strconv.Itoa(status), source).Inc()
}

// RecordRateLimited increments the rate-limited counter.
func (m *FailureMetrics) RecordRateLimited() {
	m.RateLimitedTotal.Inc()
}

// Enter implements failures.PhaseObserver.
func (m *FailureMetrics) Enter(op failures.Operation, phase failures.Phase) {
	if phase == failures.PhaseAcquiredBoth {
		m.DeadlockAcquiredTotal.WithLabelValues(string(op)).Inc()
		return
	}
	m.DeadlockPhase.WithLabelValues(string(op), string(phase)).Inc()
}

// Leave implements failures.PhaseObserver.
func (m *FailureMetrics) Leave(op failures.Operation, phase failures.Phase) {
	m.DeadlockPhase.WithLabelValues(string(op), string(phase)).Dec()
}

var _ failures.PhaseObserver = (*FailureMetrics)(nil)
