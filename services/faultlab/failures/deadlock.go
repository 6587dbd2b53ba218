// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package failures

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDeadlockHold is how long each deadlock operation holds its first lock.
const DefaultDeadlockHold = 2 * time.Second

// =============================================================================
// Phases
// =============================================================================

// Phase is the position of one deadlock invocation in its lock sequence.
type Phase string

const (
	PhaseHoldingFirstLock    Phase = "holding_first_lock"
	PhaseWaitingOnSecondLock Phase = "waiting_on_second_lock"
	PhaseAcquiredBoth        Phase = "acquired_both"
)

// PhaseObserver is notified as invocations move between phases.
//
// Enter and Leave are always paired for holding_first_lock and
// waiting_on_second_lock. acquired_both is only entered.
// Implementations must be safe for concurrent use and must not block.
type PhaseObserver interface {
	Enter(op Operation, phase Phase)
	Leave(op Operation, phase Phase)
}

// PhaseCounts is a snapshot of one operation's invocations by phase.
type PhaseCounts struct {
	HoldingFirstLock    int64 `json:"holding_first_lock"`
	WaitingOnSecondLock int64 `json:"waiting_on_second_lock"`
	AcquiredBoth        int64 `json:"acquired_both"`
}

type phaseCounters struct {
	holding  atomic.Int64
	waiting  atomic.Int64
	acquired atomic.Int64
}

func (c *phaseCounters) counter(p Phase) *atomic.Int64 {
	switch p {
	case PhaseHoldingFirstLock:
		return &c.holding
	case PhaseWaitingOnSecondLock:
		return &c.waiting
	case PhaseAcquiredBoth:
		return &c.acquired
	}
	return nil
}

// =============================================================================
// Lock Pair
// =============================================================================

// LockPair is the shared LockA / LockB pair. Only Deadlocker touches it.
type LockPair struct {
	a sync.Mutex
	b sync.Mutex
}

// =============================================================================
// Deadlocker
// =============================================================================

// Deadlocker runs the two deadlock operations against one LockPair.
//
// # Description
//
// DeadlockOne acquires LockA, holds it for the hold delay, then acquires
// LockB. DeadlockTwo does the same in the opposite order. Invoked alone,
// either returns after roughly the hold delay. Invoked concurrently within
// the hold window, both block forever.
//
// # Thread Safety
//
// Safe for concurrent use; that is the point.
//
// # Limitations
//
//   - No timeout, no cancellation, no recovery. A blocked invocation stays
//     blocked until the process exits.
//   - The context passed to DeadlockOne/DeadlockTwo is used for span events
//     and log correlation only.
//
// # Assumptions
//
//   - One Deadlocker per process serves both routes, so they share one pair.
type Deadlocker struct {
	locks    *LockPair
	hold     time.Duration
	logger   *slog.Logger
	observer PhaseObserver
	counts   map[Operation]*phaseCounters
}

// NewDeadlocker creates a Deadlocker with its own LockPair.
//
// # Inputs
//
//   - hold: Delay between first and second acquisition. <= 0 uses DefaultDeadlockHold.
//   - logger: Logger for phase transitions. nil uses slog.Default().
//   - observer: Optional phase observer (metrics). May be nil.
//
// # Outputs
//
//   - *Deadlocker: Ready to use.
func NewDeadlocker(hold time.Duration, logger *slog.Logger, observer PhaseObserver) *Deadlocker {
	if hold <= 0 {
		hold = DefaultDeadlockHold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deadlocker{
		locks:    &LockPair{},
		hold:     hold,
		logger:   logger,
		observer: observer,
		counts: map[Operation]*phaseCounters{
			OpDeadlockOne: {},
			OpDeadlockTwo: {},
		},
	}
}

// Hold returns the configured hold delay.
func (d *Deadlocker) Hold() time.Duration {
	return d.hold
}

// DeadlockOne acquires LockA, then LockB after the hold delay.
func (d *Deadlocker) DeadlockOne(ctx context.Context) {
	d.acquireInOrder(ctx, OpDeadlockOne, &d.locks.a, "A", &d.locks.b, "B")
}

// DeadlockTwo acquires LockB, then LockA after the hold delay.
func (d *Deadlocker) DeadlockTwo(ctx context.Context) {
	d.acquireInOrder(ctx, OpDeadlockTwo, &d.locks.b, "B", &d.locks.a, "A")
}

// Status returns the current phase counts for both operations.
func (d *Deadlocker) Status() map[Operation]PhaseCounts {
	out := make(map[Operation]PhaseCounts, len(d.counts))
	for op, c := range d.counts {
		out[op] = PhaseCounts{
			HoldingFirstLock:    c.holding.Load(),
			WaitingOnSecondLock: c.waiting.Load(),
			AcquiredBoth:        c.acquired.Load(),
		}
	}
	return out
}

func (d *Deadlocker) acquireInOrder(ctx context.Context, op Operation,
	first *sync.Mutex, firstName string, second *sync.Mutex, secondName string) {

	span := trace.SpanFromContext(ctx)

	first.Lock()
	defer first.Unlock()
	d.enter(ctx, span, op, PhaseHoldingFirstLock, firstName)

	time.Sleep(d.hold)

	d.leave(op, PhaseHoldingFirstLock)
	d.enter(ctx, span, op, PhaseWaitingOnSecondLock, secondName)

	second.Lock()
	defer second.Unlock()

	d.leave(op, PhaseWaitingOnSecondLock)
	d.enter(ctx, span, op, PhaseAcquiredBoth, secondName)
}

func (d *Deadlocker) enter(ctx context.Context, span trace.Span, op Operation, p Phase, lock string) {
	d.counts[op].counter(p).Add(1)
	if d.observer != nil {
		d.observer.Enter(op, p)
	}
	span.AddEvent("deadlock.phase", trace.WithAttributes(
		attribute.String("faultlab.operation", string(op)),
		attribute.String("faultlab.phase", string(p)),
		attribute.String("faultlab.lock", lock),
	))
	d.logger.InfoContext(ctx, "Deadlock phase",
		"operation", op,
		"phase", p,
		"lock", lock,
		"hold", d.hold.String(),
	)
}

func (d *Deadlocker) leave(op Operation, p Phase) {
	d.counts[op].counter(p).Add(-1)
	if d.observer != nil {
		d.observer.Leave(op, p)
	}
}
