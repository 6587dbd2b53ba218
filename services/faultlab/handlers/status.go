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
	"net/http"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports liveness. It stays responsive while deadlock requests
// are blocked.
func HealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "faultlab",
		})
	}
}

// ListFaults returns the route table.
func ListFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"faults": failures.RouteTable(),
		})
	}
}

// DeadlockStatus reports how many deadlock invocations are in each phase.
// It reads counters only and never touches the lock pair.
func DeadlockStatus(d *failures.Deadlocker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"hold":       d.Hold().String(),
			"operations": d.Status(),
		})
	}
}
