// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command faultlab runs the FaultLab failure-injection server.
//
// Environment variables (override the config file):
//   - FAULTLAB_PORT: Listen port (default: 8080)
//   - FAULTLAB_DEADLOCK_HOLD: First-lock hold time for /deadlock/* (default: 2s)
//   - FAULTLAB_RATE_LIMIT: Trigger requests per second, 0 disables (default: 0)
//   - FAULTLAB_MAX_STACK_BYTES: Goroutine stack cap for /stack-overflow
//   - FAULTLAB_LOG_LEVEL: debug, info, warn or error (default: info)
//   - OTEL_TRACES_EXPORTER / OTEL_METRICS_EXPORTER / OTEL_EXPORTER_OTLP_ENDPOINT
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
