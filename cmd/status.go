// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

var (
	statusOutput   string
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read every layer and the buzzer",
	Long: `Read the full tower state: all three LED layers and the buzzer.

Output formats:
  text  human-readable (default)
  json  indented JSON
  yaml  YAML
  cbor  raw CBOR bytes on stdout, for piping to other Thermoquad tools

With --watch the state is re-read at most once per --interval until
interrupted. Only changes are printed in text mode.`,
	RunE: runStatus,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Turn every LED and the buzzer off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
			if err := c.ClearTowerLight(ctx); err != nil {
				return err
			}
			fmt.Println("Tower cleared")
			return nil
		})
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format (text, json, yaml, cbor)")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep polling the tower")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", time.Second, "Minimum time between reads with --watch")

	rootCmd.AddCommand(statusCmd, clearCmd)
}

// snapshotYAML is the YAML shape of a snapshot, with names instead of numbers
type snapshotYAML struct {
	Layers []layerYAML `yaml:"layers"`
	Buzzer buzzerYAML  `yaml:"buzzer"`
}

type layerYAML struct {
	Layer   string `yaml:"layer"`
	Red     string `yaml:"red"`
	Green   string `yaml:"green"`
	Blue    string `yaml:"blue"`
	Pattern string `yaml:"pattern"`
}

type buzzerYAML struct {
	Tone    string `yaml:"tone"`
	Volume  string `yaml:"volume"`
	Pattern string `yaml:"pattern"`
}

func toYAML(s tower.Snapshot) snapshotYAML {
	out := snapshotYAML{
		Buzzer: buzzerYAML{
			Tone:    s.Buzzer.Tone.String(),
			Volume:  s.Buzzer.Volume.String(),
			Pattern: s.Buzzer.Pattern.String(),
		},
	}
	for i, l := range s.Layers {
		out.Layers = append(out.Layers, layerYAML{
			Layer:   tower.Layer(i).String(),
			Red:     l.Red.String(),
			Green:   l.Green.String(),
			Blue:    l.Blue.String(),
			Pattern: l.Pattern.String(),
		})
	}
	return out
}

// writeSnapshot renders a snapshot in the requested format
func writeSnapshot(w io.Writer, format string, s tower.Snapshot) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, s.String())
		return err
	case "json":
		data, err := tower.MarshalSnapshotJSON(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(s)); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		data, err := tower.MarshalSnapshotCBOR(s)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: unknown output format %q", tower.ErrInvalidParameter, format)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Reject a bad format before touching the device
	if err := writeSnapshot(io.Discard, statusOutput, tower.Snapshot{}); err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *tower.Client) error {
		if !statusWatch {
			snap, err := c.ReadSnapshot(ctx)
			if err != nil {
				return err
			}
			return writeSnapshot(os.Stdout, statusOutput, snap)
		}
		return watchStatus(ctx, c)
	})
}

// watchStatus re-reads the tower, paced by a rate limiter, until ctx ends
func watchStatus(ctx context.Context, c *tower.Client) error {
	limiter := rate.NewLimiter(rate.Every(statusInterval), 1)

	var last *tower.Snapshot
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		snap, err := c.ReadSnapshot(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] %v\n", time.Now().Format("15:04:05.000"), err)
			continue
		}

		if statusOutput == "text" {
			if last != nil && *last == snap {
				continue
			}
			fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05.000"))
		}
		if err := writeSnapshot(os.Stdout, statusOutput, snap); err != nil {
			return err
		}
		last = &snap
	}
}
