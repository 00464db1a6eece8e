// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection by reading the buzzer status",
	Long: `Send buzzer status reads to the tower and report the round-trip time.

Status reads never change the tower, so this is safe against a tower in use.
The command fails with the error of the last attempt if no read succeeds.

Useful for testing connectivity to a tower or a WebSocket bridge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, runPing)
	},
}

func init() {
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 4, "Number of reads")
	pingCmd.Flags().DurationVarP(&pingInterval, "interval", "i", time.Second, "Pause between reads")
	rootCmd.AddCommand(pingCmd)
}

func runPing(ctx context.Context, c *tower.Client) error {
	var lastErr error
	var ok int
	var minRTT, maxRTT, total time.Duration

	for i := 0; i < pingCount; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, pingInterval); err != nil {
				break
			}
		}

		start := time.Now()
		status, err := c.GetBuzzerStatus(ctx)
		rtt := time.Since(start)
		if err != nil {
			lastErr = err
			fmt.Printf("seq=%d error: %v\n", i, err)
			continue
		}

		ok++
		total += rtt
		if ok == 1 || rtt < minRTT {
			minRTT = rtt
		}
		if rtt > maxRTT {
			maxRTT = rtt
		}
		fmt.Printf("seq=%d time=%s buzzer=%s\n", i, rtt.Round(time.Microsecond), status)
	}

	fmt.Printf("\n%d sent, %d ok", pingCount, ok)
	if ok > 0 {
		avg := total / time.Duration(ok)
		fmt.Printf(", rtt min/avg/max = %s/%s/%s",
			minRTT.Round(time.Microsecond), avg.Round(time.Microsecond), maxRTT.Round(time.Microsecond))
	}
	fmt.Println()

	if ok == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}
