// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/handlers"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/middleware"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/observability"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/views"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, limiter *rate.Limiter) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	metrics := observability.NewFailureMetrics(reg)
	d := failures.NewDeadlocker(10*time.Millisecond, logger, metrics)

	router := gin.New()
	require.NoError(t, views.Install(router))
	router.Use(middleware.ErrorPages(metrics, logger))

	SetupRoutes(router, Deps{
		Triggers:    handlers.NewTriggers(metrics, d, logger),
		Deadlocker:  d,
		Gatherer:    reg,
		Limiter:     limiter,
		RateLimited: metrics,
	})
	return router
}

func get(router *gin.Engine, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersEveryRoute(t *testing.T) {
	router := newTestRouter(t, nil)

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{"/health", "/metrics", "/faults", "/deadlock/status"}
	for _, route := range failures.RouteTable() {
		expected = append(expected, route.Path)
	}
	for _, path := range expected {
		assert.True(t, registered["GET "+path], "route %s should be registered", path)
	}
}

func TestSetupRoutes_StatusMapping(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		path   string
		status int
	}{
		{"/generic-failure", http.StatusInternalServerError},
		{"/null-access", http.StatusInternalServerError},
		{"/invalid-arg", http.StatusInternalServerError},
		{"/out-of-bounds", http.StatusInternalServerError},
		{"/forbidden-access", http.StatusForbidden},
		{"/io-error", http.StatusInternalServerError},
		{"/parse-error/42", http.StatusOK},
		{"/parse-error/-7", http.StatusOK},
		{"/parse-error/abc", http.StatusInternalServerError},
		{"/param-variant/trigger", http.StatusInternalServerError},
		{"/param-variant/simulateDbIssue", http.StatusInternalServerError},
		{"/param-variant/hello", http.StatusOK},
		{"/health", http.StatusOK},
		{"/faults", http.StatusOK},
		{"/deadlock/status", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(router, tt.path, "application/json")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSetupRoutes_ErrorViewNegotiation(t *testing.T) {
	router := newTestRouter(t, nil)

	html := get(router, "/generic-failure", "text/html")
	assert.Contains(t, html.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, html.Body.String(), "generic_failure")

	js := get(router, "/generic-failure", "application/json")
	assert.Contains(t, js.Header().Get("Content-Type"), "application/json")
}

func TestSetupRoutes_MetricsExposeFailures(t *testing.T) {
	router := newTestRouter(t, nil)

	get(router, "/forbidden-access", "application/json")
	get(router, "/null-access", "application/json")

	body := get(router, "/metrics", "").Body.String()
	assert.Contains(t, body, `faultlab_triggers_invocations_total{operation="ForbiddenAccess"} 1`)
	assert.Contains(t, body, `faultlab_triggers_failures_total{kind="forbidden_access",source="error",status="403"} 1`)
	assert.Contains(t, body, `faultlab_triggers_failures_total{kind="null_access",source="panic",status="500"} 1`)
}

func TestSetupRoutes_RateLimitOnlyGuardsTriggers(t *testing.T) {
	router := newTestRouter(t, rate.NewLimiter(rate.Limit(1.0/3600), 1))

	assert.Equal(t, http.StatusInternalServerError, get(router, "/generic-failure", "application/json").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/generic-failure", "application/json").Code)

	assert.Equal(t, http.StatusOK, get(router, "/health", "").Code)
	metrics := get(router, "/metrics", "")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "faultlab_triggers_rate_limited_total 1")
}
