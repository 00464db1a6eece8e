// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/pharos/pkg/logging"
	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	// Loaded in PersistentPreRunE
	appConfig *Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "pharos",
	Short: "Signal Tower Controller",
	Long: `Pharos - A CLI tool for controlling signal towers (stacked indicator lights).

Sets and reads the three LED layers and the buzzer of a tower, and provides an
interactive control panel, a protocol monitor and a tower simulator.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Every flag can also be set in a config file (--config, or pharos.yaml/.toml/.json
in the working directory or the user config directory) or through PHAROS_*
environment variables, e.g. PHAROS_PORT or PHAROS_LOG_LEVEL.

For WebSocket authentication, the password is read from the PHAROS_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "1.0.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		appConfig = cfg

		l, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: pharos.{yaml,toml,json})")

	// Serial connection flags
	rootCmd.PersistentFlags().StringP("port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntP("baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().String("username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Exchange flags
	rootCmd.PersistentFlags().Duration("timeout", tower.DefaultTimeoutMs*time.Millisecond, "Reply timeout per command")
	rootCmd.PersistentFlags().Duration("poll-interval", tower.DefaultPollIntervalMs*time.Millisecond, "Delay between reply polls")
	rootCmd.PersistentFlags().Bool("clear-on-open", false, "Turn every LED and the buzzer off after connecting")

	// Observability flags
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "Also log to this file, rotated")
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
