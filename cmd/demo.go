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

var demoStep time.Duration

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the red/blue/green demo sequence",
	Long: `Clear the tower, then light layer 1 red, layer 2 blue and layer 3 green,
pausing between each step. The final state is read back and printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, runDemo)
	},
}

func init() {
	demoCmd.Flags().DurationVar(&demoStep, "step", time.Second, "Pause between steps")
	rootCmd.AddCommand(demoCmd)
}

// demoSequence is the layer/colour order of the demo
var demoSequence = []struct {
	layer  tower.Layer
	status tower.LEDStatus
}{
	{tower.LayerOne, tower.LEDStatus{Red: tower.LEDOn, Pattern: tower.PatternOn}},
	{tower.LayerTwo, tower.LEDStatus{Blue: tower.LEDOn, Pattern: tower.PatternOn}},
	{tower.LayerThree, tower.LEDStatus{Green: tower.LEDOn, Pattern: tower.PatternOn}},
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func runDemo(ctx context.Context, c *tower.Client) error {
	fmt.Println("Clearing tower")
	if err := c.ClearTowerLight(ctx); err != nil {
		return err
	}

	for _, step := range demoSequence {
		if err := sleepCtx(ctx, demoStep); err != nil {
			return err
		}
		if err := c.SetLED(ctx, step.layer, step.status); err != nil {
			return fmt.Errorf("layer %s: %w", step.layer, err)
		}
		fmt.Printf("Layer %s: %s\n", step.layer, step.status)
	}

	snap, err := c.ReadSnapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(snap)
	fmt.Println()
	fmt.Print(c.Statistics())
	return nil
}
