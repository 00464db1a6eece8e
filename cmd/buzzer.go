// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/spf13/cobra"
)

var (
	buzzerTone    string
	buzzerVolume  string
	buzzerPattern string
)

var buzzerCmd = &cobra.Command{
	Use:   "buzzer",
	Short: "Set, read or stop the buzzer",
}

var buzzerSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Set tone, volume and pattern",
	Example: `  pharos buzzer set --tone low --volume small --pattern 2`,
	RunE:    runBuzzerSet,
}

var buzzerGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read the buzzer state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
			status, err := c.GetBuzzerStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Buzzer: %s\n", status)
			return nil
		})
	},
}

var buzzerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Silence the buzzer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
			if err := c.StopBuzzer(ctx); err != nil {
				return err
			}
			fmt.Println("Buzzer off")
			return nil
		})
	},
}

func init() {
	buzzerSetCmd.Flags().StringVar(&buzzerTone, "tone", "high", "Tone (high, low)")
	buzzerSetCmd.Flags().StringVar(&buzzerVolume, "volume", "medium", "Volume (big, medium, small)")
	buzzerSetCmd.Flags().StringVar(&buzzerPattern, "pattern", "1", "Pattern (off, 1-4)")

	buzzerCmd.AddCommand(buzzerSetCmd, buzzerGetCmd, buzzerStopCmd)
	rootCmd.AddCommand(buzzerCmd)
}

// parseBuzzerStatus builds a BuzzerStatus from flag strings
func parseBuzzerStatus(tone, volume, pattern string) (tower.BuzzerStatus, error) {
	var s tower.BuzzerStatus
	var err error
	if s.Tone, err = tower.ParseBuzzerTone(tone); err != nil {
		return s, err
	}
	if s.Volume, err = tower.ParseBuzzerVolume(volume); err != nil {
		return s, err
	}
	if s.Pattern, err = tower.ParseBuzzerPattern(pattern); err != nil {
		return s, err
	}
	return s, nil
}

func runBuzzerSet(cmd *cobra.Command, args []string) error {
	status, err := parseBuzzerStatus(buzzerTone, buzzerVolume, buzzerPattern)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
		if err := c.SetBuzzer(ctx, status); err != nil {
			return err
		}
		fmt.Printf("Buzzer: %s\n", status)
		return nil
	})
}
