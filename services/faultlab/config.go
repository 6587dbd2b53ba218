// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package faultlab

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/telemetry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Configuration
// =============================================================================

// Default configuration values.
const (
	DefaultPort            = 8080
	DefaultRateBurst       = 10
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds FaultLab service configuration.
//
// # Description
//
// Values come from DefaultConfig, then an optional YAML file, then
// environment variables. LoadConfig applies all three and validates the
// result.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Slow deadlock, rate limited triggers
//	cfg := Config{
//	    DeadlockHold: 5 * time.Second,
//	    RateLimit:    2,
//	}
type Config struct {
	// Port is the HTTP server port. Default: 8080
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// GinMode sets the Gin framework mode: "debug", "release" or "test".
	// Empty leaves the GIN_MODE default in place.
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`

	// DeadlockHold is the sleep between the two lock acquisitions.
	// Default: 2s
	DeadlockHold time.Duration `yaml:"deadlock_hold" validate:"gt=0"`

	// RateLimit is the trigger request rate per second. 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// RateBurst is the token bucket size for RateLimit. Default: 10
	RateBurst int `yaml:"rate_burst" validate:"gte=0"`

	// MaxStackBytes caps goroutine stacks via debug.SetMaxStack. 0 keeps the
	// runtime default, which lets stack exhaustion consume up to 1 GB first.
	MaxStackBytes int `yaml:"max_stack_bytes" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown. Deadlocked requests never
	// drain, so shutdown with one in flight always takes this long.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	// LogLevel is one of debug, info, warn, error. Default: info
	LogLevel string `yaml:"log_level" validate:"loglevel"`

	// Telemetry configures tracing and metrics export.
	Telemetry telemetry.Config `yaml:"telemetry"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("loglevel", validateLogLevel)
}

func validateLogLevel(fl validator.FieldLevel) bool {
	_, err := ParseLogLevel(fl.Field().String())
	return err == nil
}

// ParseLogLevel converts a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// DefaultConfig returns the defaults used before a file or env is applied.
func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		DeadlockHold:    failures.DefaultDeadlockHold,
		RateBurst:       DefaultRateBurst,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        DefaultLogLevel,
		Telemetry:       telemetry.DefaultConfig(),
	}
}

// LoadConfig builds a validated Config.
//
// # Description
//
// Starts from DefaultConfig, overlays the YAML file at path when path is
// non-empty, then applies environment overrides:
//
//	FAULTLAB_PORT, FAULTLAB_DEADLOCK_HOLD, FAULTLAB_LOG_LEVEL,
//	FAULTLAB_RATE_LIMIT, FAULTLAB_MAX_STACK_BYTES,
//	OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT
//
// # Inputs
//
//   - path: YAML config file. Empty skips the file.
//
// # Outputs
//
//   - Config: The merged configuration.
//   - error: Read, parse, env or validation failure. Validation failures
//     match ErrInvalidConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// applyEnvOverrides reads FAULTLAB_* and OTEL_* variables into cfg.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FAULTLAB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FAULTLAB_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("FAULTLAB_DEADLOCK_HOLD"); v != "" {
		hold, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FAULTLAB_DEADLOCK_HOLD: %w", err)
		}
		cfg.DeadlockHold = hold
	}
	if v := os.Getenv("FAULTLAB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FAULTLAB_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FAULTLAB_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = limit
	}
	if v := os.Getenv("FAULTLAB_MAX_STACK_BYTES"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FAULTLAB_MAX_STACK_BYTES: %w", err)
		}
		cfg.MaxStackBytes = size
	}
	if v := os.Getenv("OTEL_TRACES_EXPORTER"); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("OTEL_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricExporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return nil
}

// applyConfigDefaults fills zero-valued fields so New accepts a partial
// Config built in code.
func applyConfigDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.DeadlockHold == 0 {
		cfg.DeadlockHold = def.DeadlockHold
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = def.Telemetry.ServiceVersion
	}
	if cfg.Telemetry.Environment == "" {
		cfg.Telemetry.Environment = def.Telemetry.Environment
	}
	if cfg.Telemetry.TraceExporter == "" {
		cfg.Telemetry.TraceExporter = def.Telemetry.TraceExporter
	}
	if cfg.Telemetry.MetricExporter == "" {
		cfg.Telemetry.MetricExporter = def.Telemetry.MetricExporter
	}
	if cfg.Telemetry.OTLPEndpoint == "" {
		cfg.Telemetry.OTLPEndpoint = def.Telemetry.OTLPEndpoint
	}
	return cfg
}
