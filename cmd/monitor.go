// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/Thermoquad/pharos/pkg/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var monitorHex bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display tower frames in human-readable format",
	Long: `Continuously decode and display tower protocol frames as they arrive.

Each frame is shown with timestamp, command type and decoded payload. Use it
on a tap of the line between a controller and a tower, or against the
simulator.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorHex, "hex", false, "Also print the raw bytes of each frame")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	conn, connInfo, err := OpenConnection(ctx, appConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Pharos - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	return monitorLoop(ctx, conn, appConfig.PollInterval)
}

// monitorLoop decodes and prints frames until ctx ends or the connection closes
func monitorLoop(ctx context.Context, conn tower.Transport, poll time.Duration) error {
	decoder := tower.NewDecoder()
	buf := make([]byte, 128)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			// A WebSocket read error means the connection is gone for good
			if errors.Is(err, transport.ErrConnectionClosed) {
				logger.Info("connection closed")
				return nil
			}
			logger.Warn("read error", zap.Error(err))
			time.Sleep(poll)
			continue
		}
		if n == 0 {
			time.Sleep(poll)
			continue
		}

		frames, errs := decoder.Decode(buf[:n])
		for _, err := range errs {
			fmt.Printf("[ERROR] %v\n", err)
		}
		for _, f := range frames {
			fmt.Print(tower.FormatFrame(f))
			if monitorHex {
				fmt.Printf("  Raw: %s\n", tower.FormatBytes(f.Bytes()))
			}
		}
	}
}
