// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitRecorder counts rejected requests.
type RateLimitRecorder interface {
	RecordRateLimited()
}

// NewLimiter returns a token bucket allowing perSecond requests with the
// given burst, or nil when perSecond is not positive.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RateLimit rejects requests with 429 once limiter is exhausted.
//
// # Inputs
//
//   - limiter: Shared token bucket. nil disables limiting.
//   - recorder: Rejection counter. May be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: The middleware.
func RateLimit(limiter *rate.Limiter, recorder RateLimitRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}

		if recorder != nil {
			recorder.RecordRateLimited()
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate limit exceeded",
		})
	}
}
