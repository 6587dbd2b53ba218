// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package faultlab

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadConfig reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FAULTLAB_PORT", "FAULTLAB_DEADLOCK_HOLD", "FAULTLAB_LOG_LEVEL",
		"FAULTLAB_RATE_LIMIT", "FAULTLAB_MAX_STACK_BYTES",
		"OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faultlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// =============================================================================
// LoadConfig Tests
// =============================================================================

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, failures.DefaultDeadlockHold, cfg.DeadlockHold)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, "faultlab", cfg.Telemetry.ServiceName)
}

func TestLoadConfig_YAMLOverlaysDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: 9191
deadlock_hold: 750ms
rate_limit: 2.5
log_level: debug
telemetry:
  trace_exporter: stdout
  metric_exporter: none
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.DeadlockHold)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "none", cfg.Telemetry.MetricExporter)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
	assert.Equal(t, "faultlab", cfg.Telemetry.ServiceName)
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: 9191\ndeadlock_hold: 1s\n")
	t.Setenv("FAULTLAB_PORT", "9292")
	t.Setenv("FAULTLAB_DEADLOCK_HOLD", "3s")
	t.Setenv("FAULTLAB_RATE_LIMIT", "7")
	t.Setenv("FAULTLAB_MAX_STACK_BYTES", "16777216")
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9292, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.DeadlockHold)
	assert.Equal(t, 7.0, cfg.RateLimit)
	assert.Equal(t, 16<<20, cfg.MaxStackBytes)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		invalid bool
	}{
		{name: "bad port env", env: map[string]string{"FAULTLAB_PORT": "eighty"}},
		{name: "bad hold env", env: map[string]string{"FAULTLAB_DEADLOCK_HOLD": "soon"}},
		{name: "bad rate env", env: map[string]string{"FAULTLAB_RATE_LIMIT": "fast"}},
		{name: "port out of range", env: map[string]string{"FAULTLAB_PORT": "70000"}, invalid: true},
		{name: "negative rate", env: map[string]string{"FAULTLAB_RATE_LIMIT": "-1"}, invalid: true},
		{name: "unknown log level", env: map[string]string{"FAULTLAB_LOG_LEVEL": "loud"}, invalid: true},
		{name: "unknown exporter", env: map[string]string{"OTEL_TRACES_EXPORTER": "zipkin"}, invalid: true},
		{name: "negative hold in file", file: "deadlock_hold: -1s\n", invalid: true},
		{name: "bad gin mode in file", file: "gin_mode: turbo\n", invalid: true},
		{name: "malformed yaml", file: "port: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, isInvalidConfig(err), "err: %v", err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func isInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// =============================================================================
// Defaults / Log Level Tests
// =============================================================================

func TestApplyConfigDefaults_FillsZeroValues(t *testing.T) {
	cfg := applyConfigDefaults(Config{Port: 1234})

	assert.Equal(t, 1234, cfg.Port)
	assert.Equal(t, failures.DefaultDeadlockHold, cfg.DeadlockHold)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.NotEmpty(t, cfg.Telemetry.TraceExporter)
	assert.NoError(t, cfg.Validate())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", slog.LevelInfo, false},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
