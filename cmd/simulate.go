// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Thermoquad/pharos/pkg/simulator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	simListen     string
	simPath       string
	simFault      string
	simReplyDelay int
	simChunk      int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a simulated tower over WebSocket",
	Long: `Run a simulated signal tower that speaks the tower protocol over WebSocket.

Point other pharos commands at it with --url ws://<listen><path>. When
--username is set, clients must authenticate with HTTP Basic auth using the
password from PHAROS_PASSWORD.

Faults:
  none          behave normally
  nak           reply NAK to every command
  bad-checksum  corrupt every reply checksum
  silent        never reply`,
	Example: `  pharos simulate --listen :8080
  pharos --url ws://localhost:8080/tower status`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simListen, "listen", ":8080", "Listen address")
	simulateCmd.Flags().StringVar(&simPath, "path", "/tower", "WebSocket path")
	simulateCmd.Flags().StringVar(&simFault, "fault", "none", "Fault to inject (none, nak, bad-checksum, silent)")
	simulateCmd.Flags().IntVar(&simReplyDelay, "reply-delay", 0, "Empty reads before each reply becomes readable")
	simulateCmd.Flags().IntVar(&simChunk, "chunk", 0, "Reply bytes per read (0 = whole reply)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	fault, err := simulator.ParseFault(simFault)
	if err != nil {
		return err
	}

	password := ""
	if appConfig.Username != "" {
		password = os.Getenv(envPrefix + "_PASSWORD")
		if password == "" {
			return fmt.Errorf("--username requires %s_PASSWORD", envPrefix)
		}
	}

	device := simulator.NewDevice(
		simulator.WithFault(fault),
		simulator.WithReplyDelay(simReplyDelay),
		simulator.WithChunkSize(simChunk),
		simulator.WithLogger(logger.Named("device")),
	)

	mux := http.NewServeMux()
	mux.Handle(simPath, simulator.NewServer(device, appConfig.Username, password, logger.Named("server")))

	srv := &http.Server{
		Addr:              simListen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Pharos - Tower Simulator\n")
	fmt.Printf("Listening: ws://%s%s (fault: %s)\n", simListen, simPath, fault)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	commands, rejected := device.Counts()
	logger.Info("simulator stopped", zap.Uint64("commands", commands), zap.Uint64("rejected", rejected))
	fmt.Printf("\nCommands: %d, rejected: %d\n", commands, rejected)
	return nil
}
