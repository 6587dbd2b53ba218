// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/handlers"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds everything the routes need.
type Deps struct {
	// Triggers builds the failure handlers. Required.
	Triggers *handlers.Triggers

	// Deadlocker backs /deadlock/status. Required.
	Deadlocker *failures.Deadlocker

	// Gatherer is served at /metrics. nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Limiter guards the trigger routes. nil disables limiting.
	Limiter *rate.Limiter

	// RateLimited counts rejected trigger requests. May be nil.
	RateLimited middleware.RateLimitRecorder
}

// SetupRoutes registers every failure trigger from the route table plus the
// operational endpoints. Only trigger routes are rate limited, so /health
// and /metrics stay reachable under load.
func SetupRoutes(router *gin.Engine, deps Deps) {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router.GET("/health", handlers.HealthCheck())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/faults", handlers.ListFaults())
	router.GET("/deadlock/status", handlers.DeadlockStatus(deps.Deadlocker))

	triggers := router.Group("", middleware.RateLimit(deps.Limiter, deps.RateLimited))
	{
		for _, route := range failures.RouteTable() {
			triggers.GET(route.Path, deps.Triggers.Handler(route.Operation))
		}
	}
}
