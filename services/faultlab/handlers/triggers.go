// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/telemetry"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/views"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TriggerRecorder counts trigger invocations.
type TriggerRecorder interface {
	RecordTrigger(op failures.Operation)
}

// Triggers builds the handlers for every failure operation. None of them
// recover: errors go to c.Error, panics propagate to the error middleware.
type Triggers struct {
	recorder   TriggerRecorder
	deadlocker *failures.Deadlocker
	logger     *slog.Logger
}

// NewTriggers wires the trigger handlers. recorder may be nil. deadlocker
// must not be nil; all requests share its lock pair.
func NewTriggers(recorder TriggerRecorder, deadlocker *failures.Deadlocker, logger *slog.Logger) *Triggers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Triggers{recorder: recorder, deadlocker: deadlocker, logger: logger}
}

// Handler returns the handler for op. It panics on an unknown operation,
// which is a wiring bug caught at startup.
func (t *Triggers) Handler(op failures.Operation) gin.HandlerFunc {
	switch op {
	case failures.OpGenericFailure:
		return t.GenericFailure()
	case failures.OpNullAccess:
		return t.NullAccess()
	case failures.OpInvalidArgument:
		return t.InvalidArgument()
	case failures.OpBoundsViolation:
		return t.BoundsViolation()
	case failures.OpForbiddenAccess:
		return t.ForbiddenAccess()
	case failures.OpSimulatedIO:
		return t.SimulatedIO()
	case failures.OpParseFailure:
		return t.ParseFailure()
	case failures.OpStackExhaustion:
		return t.StackExhaustion()
	case failures.OpDeadlockOne:
		return t.DeadlockOne()
	case failures.OpDeadlockTwo:
		return t.DeadlockTwo()
	case failures.OpParamVariant:
		return t.ParamVariant()
	}
	panic(fmt.Sprintf("handlers: no handler for operation %q", op))
}

// GenericFailure always fails with a plain unexpected error.
func (t *Triggers) GenericFailure() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpGenericFailure)
		fail(c, failures.GenericFailure())
	}
}

// NullAccess panics on a nil dereference.
func (t *Triggers) NullAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpNullAccess)
		n := failures.NullAccess()
		ok(c, failures.OpNullAccess, "unreachable", n)
	}
}

// InvalidArgument fails validation of a fixed negative value.
func (t *Triggers) InvalidArgument() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpInvalidArgument)
		fail(c, failures.InvalidArgument())
	}
}

// BoundsViolation panics on an out-of-range index.
func (t *Triggers) BoundsViolation() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpBoundsViolation)
		n := failures.BoundsViolation()
		ok(c, failures.OpBoundsViolation, "unreachable", n)
	}
}

// ForbiddenAccess fails with the 403-tagged error.
func (t *Triggers) ForbiddenAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpForbiddenAccess)
		fail(c, failures.ForbiddenAccess())
	}
}

// SimulatedIO fails with an I/O error. Nothing touches the filesystem.
func (t *Triggers) SimulatedIO() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpSimulatedIO)
		fail(c, failures.SimulatedIO())
	}
}

// ParseFailure parses the :value path segment. Valid integers succeed.
func (t *Triggers) ParseFailure() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpParseFailure)
		n, err := failures.ParseFailure(c.Param("value"))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, failures.OpParseFailure, "parsed integer", n)
	}
}

// StackExhaustion recurses until the runtime aborts the process. The
// response is never written.
func (t *Triggers) StackExhaustion() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpStackExhaustion)
		t.logger.WarnContext(c.Request.Context(), "Triggering stack exhaustion, process will terminate",
			"path", c.Request.URL.Path,
			"trace_id", telemetry.TraceID(c.Request.Context()),
		)
		n := failures.StackExhaustion()
		ok(c, failures.OpStackExhaustion, "unreachable", n)
	}
}

// DeadlockOne takes LockA then LockB. It blocks forever if DeadlockTwo
// holds LockB.
func (t *Triggers) DeadlockOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpDeadlockOne)
		t.deadlocker.DeadlockOne(c.Request.Context())
		ok(c, failures.OpDeadlockOne, "acquired LockA then LockB", "ok")
	}
}

// DeadlockTwo takes LockB then LockA.
func (t *Triggers) DeadlockTwo() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpDeadlockTwo)
		t.deadlocker.DeadlockTwo(c.Request.Context())
		ok(c, failures.OpDeadlockTwo, "acquired LockB then LockA", "ok")
	}
}

// ParamVariant branches on the :param path segment.
func (t *Triggers) ParamVariant() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.begin(c, failures.OpParamVariant)
		out, err := failures.ParamVariant(c.Param("param"))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, failures.OpParamVariant, "parameter echoed", out)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (t *Triggers) begin(c *gin.Context, op failures.Operation) {
	if t.recorder != nil {
		t.recorder.RecordTrigger(op)
	}
	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		attribute.String("faultlab.operation", string(op)),
	)
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func ok(c *gin.Context, op failures.Operation, msg string, result any) {
	views.Result(c, views.ResultPage{
		Operation: op,
		Message:   msg,
		Result:    result,
		Path:      c.Request.URL.Path,
	})
}
