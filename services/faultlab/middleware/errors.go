// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the FaultLab service.
//
// This package owns the unhandled-failure path. Trigger handlers never
// recover; whatever escapes them lands here.
//
// # Failure Flow
//
//	Request
//	   │
//	   ▼
//	RateLimit (trigger group only)
//	   │
//	   ▼
//	ErrorPages
//	   │
//	   ├─► c.Next() ──► Handler
//	   │                  │
//	   │                  ├─► c.Error(err) + c.Abort()
//	   │                  └─► panic(runtime.Error)
//	   │
//	   ├─► Classify → failures.Kind
//	   ├─► StatusFor → 403 for tagged errors, 500 otherwise
//	   ├─► incident id, span error, metrics, log
//	   │
//	   └─► views.Error (HTML or JSON)
//
// http.ErrAbortHandler panics pass through untouched so net/http can abort
// the connection.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/telemetry"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/views"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// Constants
// =============================================================================

// IncidentHeader carries the incident id on every error response.
const IncidentHeader = "X-Incident-ID"

// Runtime error fragments used by Classify.
const (
	nilDerefText   = "nil pointer dereference"
	outOfRangeText = "index out of range"
)

// =============================================================================
// Interfaces
// =============================================================================

// FailureRecorder counts rendered failures.
//
// Implemented by *observability.FailureMetrics.
type FailureRecorder interface {
	RecordFailure(kind failures.Kind, status int, panicked bool)
}

// =============================================================================
// Classification
// =============================================================================

// Classify maps a failure value to its kind.
//
// # Description
//
// Tagged *failures.Error values carry their kind. Runtime panics are
// recognized by message: nil dereference is null_access, out-of-range
// indexing is bounds_violation. Everything else is generic_failure.
//
// # Inputs
//
//   - v: An error or a recovered panic value. May be nil.
//
// # Outputs
//
//   - failures.Kind: The classified kind.
func Classify(v any) failures.Kind {
	err, ok := v.(error)
	if !ok {
		return failures.KindGeneric
	}

	var tagged *failures.Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	var rtErr runtime.Error
	if errors.As(err, &rtErr) {
		msg := rtErr.Error()
		switch {
		case strings.Contains(msg, nilDerefText):
			return failures.KindNullAccess
		case strings.Contains(msg, outOfRangeText):
			return failures.KindBoundsViolation
		}
	}
	return failures.KindGeneric
}

// StatusFor returns the HTTP status for an error: the StatusCoder's code if
// any error in the chain carries one, 500 otherwise.
func StatusFor(err error) int {
	var coder failures.StatusCoder
	if errors.As(err, &coder) {
		if code := coder.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// =============================================================================
// Middleware
// =============================================================================

// ErrorPages returns middleware that renders every unhandled failure.
//
// # Description
//
// Recovers panics from downstream handlers and, when no panic happened,
// inspects the last error attached with c.Error. Each failure gets an
// incident id, is recorded on the request span and in metrics, is logged
// with trace correlation, and is rendered with views.Error. Nothing is
// rendered when the handler already wrote a response.
//
// # Inputs
//
//   - recorder: Failure counter. May be nil.
//   - logger: Logger for failure entries. nil uses slog.Default().
//
// # Outputs
//
//   - gin.HandlerFunc: The middleware.
//
// # Limitations
//
//   - Stack exhaustion is fatal to the process and never reaches here.
//   - Deadlocked handlers never return, so nothing is rendered for them.
//
// # Assumptions
//
//   - views.Install was called on the engine.
func ErrorPages(recorder FailureRecorder, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			respond(c, recorder, logger, panicError(rec), Classify(rec), true)
		}()

		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		respond(c, recorder, logger, last.Err, Classify(last.Err), false)
	}
}

// panicError converts a recovered value to an error.
func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}

func respond(c *gin.Context, recorder FailureRecorder, logger *slog.Logger,
	err error, kind failures.Kind, panicked bool) {

	ctx := c.Request.Context()
	status := StatusFor(err)
	incidentID := uuid.NewString()

	telemetry.RecordError(trace.SpanFromContext(ctx), err,
		attribute.String("faultlab.kind", string(kind)),
		attribute.String("faultlab.incident_id", incidentID),
		attribute.Bool("faultlab.panic", panicked),
	)
	if recorder != nil {
		recorder.RecordFailure(kind, status, panicked)
	}

	attrs := []any{
		"kind", kind,
		"status", status,
		"incident_id", incidentID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"panic", panicked,
		"error", err.Error(),
	}
	if panicked {
		attrs = append(attrs, "stack", string(debug.Stack()))
	}
	log := telemetry.LoggerWithTrace(ctx, logger)
	if status < http.StatusInternalServerError {
		log.Warn("Request failed", attrs...)
	} else {
		log.Error("Unhandled failure", attrs...)
	}

	if c.Writer.Written() {
		c.Abort()
		return
	}

	page := views.NewErrorPage(status, kind, err.Error(), c.Request.URL.Path)
	page.IncidentID = incidentID
	page.TraceID = telemetry.TraceID(ctx)

	c.Header(IncidentHeader, incidentID)
	views.Error(c, page)
	c.Abort()
}
