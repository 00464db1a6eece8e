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
	ledLayer   int
	ledRed     string
	ledGreen   string
	ledBlue    string
	ledPattern string
)

var ledCmd = &cobra.Command{
	Use:   "led",
	Short: "Set, read or clear LED layers",
	Long: `Control the three LED layers of the tower.

Layers are numbered 1 (top) to 3. Each layer has red, green and blue channels
(off, on, duty) and a pattern (off, on, blink1, blink2).`,
}

var ledSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the channels and pattern of one layer",
	Example: `  pharos led set --layer 1 --red on --pattern on
  pharos led set --layer 2 --blue duty --pattern blink1`,
	RunE: runLEDSet,
}

var ledGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read one layer",
	RunE:  runLEDGet,
}

var ledClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Turn every layer off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
			if err := c.ClearAllLEDs(ctx); err != nil {
				return err
			}
			fmt.Println("All LEDs off")
			return nil
		})
	},
}

func init() {
	ledCmd.PersistentFlags().IntVarP(&ledLayer, "layer", "l", 1, "Layer number (1-3)")

	ledSetCmd.Flags().StringVar(&ledRed, "red", "off", "Red channel (off, on, duty)")
	ledSetCmd.Flags().StringVar(&ledGreen, "green", "off", "Green channel (off, on, duty)")
	ledSetCmd.Flags().StringVar(&ledBlue, "blue", "off", "Blue channel (off, on, duty)")
	ledSetCmd.Flags().StringVar(&ledPattern, "pattern", "on", "Pattern (off, on, blink1, blink2)")

	ledCmd.AddCommand(ledSetCmd, ledGetCmd, ledClearCmd)
	rootCmd.AddCommand(ledCmd)
}

// parseLEDStatus builds an LEDStatus from flag strings
func parseLEDStatus(red, green, blue, pattern string) (tower.LEDStatus, error) {
	var s tower.LEDStatus
	var err error
	if s.Red, err = tower.ParseLEDState(red); err != nil {
		return s, err
	}
	if s.Green, err = tower.ParseLEDState(green); err != nil {
		return s, err
	}
	if s.Blue, err = tower.ParseLEDState(blue); err != nil {
		return s, err
	}
	if s.Pattern, err = tower.ParseLEDPattern(pattern); err != nil {
		return s, err
	}
	return s, nil
}

func runLEDSet(cmd *cobra.Command, args []string) error {
	layer, err := tower.LayerFromNumber(ledLayer)
	if err != nil {
		return err
	}
	status, err := parseLEDStatus(ledRed, ledGreen, ledBlue, ledPattern)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
		if err := c.SetLED(ctx, layer, status); err != nil {
			return err
		}
		fmt.Printf("Layer %s: %s\n", layer, status)
		return nil
	})
}

func runLEDGet(cmd *cobra.Command, args []string) error {
	layer, err := tower.LayerFromNumber(ledLayer)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
		status, err := c.GetLEDStatus(ctx, layer)
		if err != nil {
			return err
		}
		fmt.Printf("Layer %s: %s\n", layer, status)
		return nil
	})
}
