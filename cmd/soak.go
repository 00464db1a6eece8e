// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/spf13/cobra"
)

var (
	soakDuration time.Duration
	soakStats    time.Duration
	soakShowAll  bool
	soakSeed     uint64
	soakBuzzer   bool
)

var soakCmd = &cobra.Command{
	Use:   "soak",
	Short: "Exercise the tower and track errors",
	Long: `Repeatedly set random LED states, read them back and compare.

Every exchange is counted. Failed exchanges and read-back mismatches are
printed as they happen, with periodic statistics summaries.

By default, only errors are displayed. Use --show-all to display every step.
The buzzer is left alone unless --buzzer is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, runSoak)
	},
}

func init() {
	soakCmd.Flags().DurationVar(&soakDuration, "duration", time.Minute, "How long to run (0 = until interrupted)")
	soakCmd.Flags().DurationVar(&soakStats, "stats-interval", 10*time.Second, "Statistics update interval")
	soakCmd.Flags().BoolVar(&soakShowAll, "show-all", false, "Show every step (not just errors)")
	soakCmd.Flags().Uint64Var(&soakSeed, "seed", 0, "Random seed (0 = time based)")
	soakCmd.Flags().BoolVar(&soakBuzzer, "buzzer", false, "Also exercise the buzzer")
	rootCmd.AddCommand(soakCmd)
}

func randomLEDStatus(r *rand.Rand) tower.LEDStatus {
	return tower.LEDStatus{
		Red:     tower.LEDState(r.IntN(numLEDStates)),
		Green:   tower.LEDState(r.IntN(numLEDStates)),
		Blue:    tower.LEDState(r.IntN(numLEDStates)),
		Pattern: tower.LEDPattern(r.IntN(numLEDPatterns)),
	}
}

func randomBuzzerStatus(r *rand.Rand) tower.BuzzerStatus {
	return tower.BuzzerStatus{
		Tone:    tower.BuzzerTone(r.IntN(numBuzzerTones)),
		Volume:  tower.BuzzerVolume(r.IntN(numBuzzerVolumes)),
		Pattern: tower.BuzzerPattern(r.IntN(numBuzzerPatterns)),
	}
}

// printSoakError prints an error in highlighted format
func printSoakError(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mERROR:\033[0m %s\n", timestamp, fmt.Sprintf(format, args...))
}

func printSoakStep(format string, args ...any) {
	if soakShowAll {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
	}
}

func runSoak(ctx context.Context, c *tower.Client) error {
	seed := soakSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed))

	if soakDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, soakDuration)
		defer cancel()
	}

	fmt.Printf("Pharos - Soak Test (seed %d)\n\n", seed)

	stats := c.Statistics()
	ticker := time.NewTicker(soakStats)
	defer ticker.Stop()

	var mismatches uint64
	defer func() {
		fmt.Println()
		fmt.Print(stats)
		fmt.Printf("Read-back mismatches: %d\n", mismatches)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Print(stats)
		default:
		}

		layer := tower.Layers[r.IntN(len(tower.Layers))]
		want := randomLEDStatus(r)
		if err := c.SetLED(ctx, layer, want); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printSoakError("set layer %s: %v", layer, err)
			continue
		}
		got, err := c.GetLEDStatus(ctx, layer)
		if err != nil {
			printSoakError("read layer %s: %v", layer, err)
			continue
		}
		if got != want {
			mismatches++
			printSoakError("layer %s: wrote %s, read %s", layer, want, got)
			continue
		}
		printSoakStep("layer %s: %s", layer, got)

		if !soakBuzzer {
			continue
		}
		wantBuzzer := randomBuzzerStatus(r)
		if err := c.SetBuzzer(ctx, wantBuzzer); err != nil {
			printSoakError("set buzzer: %v", err)
			continue
		}
		gotBuzzer, err := c.GetBuzzerStatus(ctx)
		if err != nil {
			printSoakError("read buzzer: %v", err)
			continue
		}
		if gotBuzzer != wantBuzzer {
			mismatches++
			printSoakError("buzzer: wrote %s, read %s", wantBuzzer, gotBuzzer)
			continue
		}
		printSoakStep("buzzer: %s", gotBuzzer)
	}
}
