// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMetrics registers metrics on an isolated registry.
func newTestMetrics(t *testing.T) (*FailureMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewFailureMetrics(reg), reg
}

func TestNewFailureMetrics_RegistersOnGivenRegistry(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordTrigger(failures.OpGenericFailure)
	m.RecordFailure(failures.KindGeneric, 500, false)
	m.RecordRateLimited()
	m.Enter(failures.OpDeadlockOne, failures.PhaseHoldingFirstLock)
	m.Enter(failures.OpDeadlockOne, failures.PhaseAcquiredBoth)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"faultlab_triggers_invocations_total",
		"faultlab_triggers_failures_total",
		"faultlab_triggers_rate_limited_total",
		"faultlab_deadlock_invocations_in_phase",
		"faultlab_deadlock_acquired_both_total",
	}, names)
}

func TestNewFailureMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewFailureMetrics(reg)
	assert.Panics(t, func() { NewFailureMetrics(reg) })
}

func TestRecordTrigger(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordTrigger(failures.OpParseFailure)
	m.RecordTrigger(failures.OpParseFailure)
	m.RecordTrigger(failures.OpDeadlockTwo)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TriggersTotal.WithLabelValues("ParseFailure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TriggersTotal.WithLabelValues("DeadlockTwo")))
}

func TestRecordFailure_Labels(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordFailure(failures.KindForbiddenAccess, 403, false)
	m.RecordFailure(failures.KindNullAccess, 500, true)
	m.RecordFailure(failures.KindNullAccess, 500, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.FailuresTotal.WithLabelValues("forbidden_access", "403", SourceError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.FailuresTotal.WithLabelValues("null_access", "500", SourcePanic)))
}

func TestPhaseObserver_GaugesTrackInFlight(t *testing.T) {
	m, _ := newTestMetrics(t)
	holding := m.DeadlockPhase.WithLabelValues("DeadlockOne", "holding_first_lock")
	waiting := m.DeadlockPhase.WithLabelValues("DeadlockOne", "waiting_on_second_lock")

	m.Enter(failures.OpDeadlockOne, failures.PhaseHoldingFirstLock)
	assert.Equal(t, 1.0, testutil.ToFloat64(holding))

	m.Leave(failures.OpDeadlockOne, failures.PhaseHoldingFirstLock)
	m.Enter(failures.OpDeadlockOne, failures.PhaseWaitingOnSecondLock)
	assert.Equal(t, 0.0, testutil.ToFloat64(holding))
	assert.Equal(t, 1.0, testutil.ToFloat64(waiting))

	m.Leave(failures.OpDeadlockOne, failures.PhaseWaitingOnSecondLock)
	m.Enter(failures.OpDeadlockOne, failures.PhaseAcquiredBoth)
	assert.Equal(t, 0.0, testutil.ToFloat64(waiting))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeadlockAcquiredTotal.WithLabelValues("DeadlockOne")))
}

func TestRateLimited_Exposition(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordRateLimited()
	m.RecordRateLimited()

	expected := `
# HELP faultlab_triggers_rate_limited_total Total trigger requests rejected by the rate limiter
# TYPE faultlab_triggers_rate_limited_total counter
faultlab_triggers_rate_limited_total 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "faultlab_triggers_rate_limited_total")
	assert.NoError(t, err)
}
