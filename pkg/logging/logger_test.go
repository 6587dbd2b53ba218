// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// New Tests
// =============================================================================

func TestNew_AutoFormatIsJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Output: &buf, Service: "faultlab"})
	require.NoError(t, err)
	defer logger.Close()

	logger.Slog().Info("hello", "kind", "null_access")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "faultlab", entry["service"])
	assert.Equal(t, "null_access", entry["kind"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Output: &buf, Format: FormatText})
	require.NoError(t, err)

	logger.Slog().Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(Config{Output: &bytes.Buffer{}, Format: "xml"})
	assert.Error(t, err)
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Output: &buf, Level: slog.LevelWarn, Format: FormatJSON})
	require.NoError(t, err)

	logger.Slog().Info("dropped")
	logger.Slog().Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_WithLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	logger, err := New(Config{Output: &buf, Service: "faultlab", LogDir: dir})
	require.NoError(t, err)

	logger.Slog().Error("Unhandled failure", "incident_id", "abc")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "faultlab_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"incident_id":"abc"`)
	assert.Contains(t, buf.String(), "incident_id")
}

func TestNew_QuietWithLogDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, err := New(Config{Output: &buf, Quiet: true, LogDir: dir})
	require.NoError(t, err)
	defer logger.Close()

	logger.Slog().Info("only in file")
	assert.Empty(t, buf.String())
}

func TestNew_LogDirNotCreatable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := New(Config{Output: &bytes.Buffer{}, LogDir: filepath.Join(file, "sub")})
	assert.Error(t, err)
}

// =============================================================================
// Multi-Handler Tests
// =============================================================================

func TestMultiHandler_FansOutAndFilters(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With("service", "faultlab").WithGroup("req")
	logger.Info("info entry", "path", "/oups")
	logger.Error("error entry")

	assert.Contains(t, debugBuf.String(), "info entry")
	assert.Contains(t, debugBuf.String(), `"req":{"path":"/oups"}`)
	assert.NotContains(t, errorBuf.String(), "info entry")
	assert.Contains(t, errorBuf.String(), "error entry")
	assert.Contains(t, errorBuf.String(), `"service":"faultlab"`)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".faultlab/logs"), expandPath("~/.faultlab/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
	assert.Equal(t, "relative", expandPath("relative"))
}
