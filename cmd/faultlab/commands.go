// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/AleutianAI/AleutianFaultLab/pkg/logging"
	"github.com/AleutianAI/AleutianFaultLab/pkg/ux"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab"
	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// --- Global Command Variables ---
var (
	configPath string
	port       int
	logDir     string
	logFormat  string
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "faultlab",
		Short: "A failure-injection server for testing error handling",
		Long: `FaultLab serves endpoints that fail on purpose: errors, runtime
panics, a 403-tagged error, a fatal stack exhaustion and a two-lock deadlock.
Never expose it outside a test environment.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the FaultLab HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	routesCmd = &cobra.Command{
		Use:   "routes",
		Short: "List the failure endpoints and the failure each produces",
		Args:  cobra.NoArgs,
		RunE:  runRoutes,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config and FAULTLAB_PORT)")
	serveCmd.Flags().StringVar(&logDir, "log-dir", "", "Also write JSON logs to this directory")
	serveCmd.Flags().StringVar(&logFormat, "log-format", logging.FormatAuto, "Log format: auto, json or text")

	routesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the route table as JSON")

	rootCmd.AddCommand(serveCmd, routesCmd, configCmd)
}

// loadConfig reads the config file and applies the --port flag.
func loadConfig() (faultlab.Config, error) {
	cfg, err := faultlab.LoadConfig(configPath)
	if err != nil {
		return faultlab.Config{}, err
	}
	if port != 0 {
		cfg.Port = port
		if err := cfg.Validate(); err != nil {
			return faultlab.Config{}, err
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, err := faultlab.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Level:   level,
		Service: cfg.Telemetry.ServiceName,
		Format:  logFormat,
		Output:  cmd.ErrOrStderr(),
		LogDir:  logDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := faultlab.New(cfg, logger.Slog())
	if err != nil {
		return err
	}
	if err := svc.Run(ctx); err != nil {
		return err
	}
	logger.Slog().Info("FaultLab stopped", "cause", context.Cause(ctx))
	return nil
}

func runRoutes(cmd *cobra.Command, _ []string) error {
	table := failures.RouteTable()
	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}

	rows := make([][]string, 0, len(table))
	for _, r := range table {
		// Deadlock and stack exhaustion never produce a response.
		status := "-"
		if code := r.Kind.Status(); code != 0 {
			status = strconv.Itoa(code)
		}
		rows = append(rows, []string{
			r.Path,
			string(r.Operation),
			string(r.Kind),
			status,
			r.Summary,
		})
	}
	fmt.Fprintln(out, ux.Styles.Title.Render("FaultLab endpoints"))
	fmt.Fprintln(out, ux.Table([]string{"PATH", "OPERATION", "KIND", "STATUS", "SUMMARY"}, rows))
	ux.Status(out, ux.IconWarning, "/stack-overflow kills the process; concurrent /deadlock/one and /deadlock/two block forever")
	return nil
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
