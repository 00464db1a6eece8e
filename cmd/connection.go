// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/pharos/pkg/metrics"
	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/Thermoquad/pharos/pkg/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Connection is a tower transport that can be closed
type Connection interface {
	tower.Transport
	io.Closer
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv(envPrefix + "_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens either a serial or WebSocket connection based on config
func OpenConnection(ctx context.Context, cfg *Config) (Connection, string, error) {
	if cfg.URL != "" {
		password := ""
		if cfg.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := transport.DialWebSocket(ctx, transport.WebSocketConfig{
			URL:           cfg.URL,
			Username:      cfg.Username,
			Password:      password,
			SkipSSLVerify: cfg.NoSSLVerify,
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", tower.ErrDeviceOpenFailed, err)
		}
		return conn, conn.String(), nil
	}

	if cfg.Port != "" {
		conn, err := transport.OpenSerial(transport.SerialConfig{Port: cfg.Port, BaudRate: cfg.Baud})
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", tower.ErrDeviceOpenFailed, err)
		}
		return conn, fmt.Sprintf("%s @ %d baud", conn, cfg.Baud), nil
	}

	return nil, "", fmt.Errorf("%w: either --port or --url must be specified", tower.ErrDeviceNotFound)
}

// session is an open tower client plus the services started alongside it
type session struct {
	client    *tower.Client
	connInfo  string
	collector *metrics.Collector
	server    *http.Server
}

// openSession connects, creates the client and, when configured, starts the
// metrics server.
func openSession(ctx context.Context) (*session, error) {
	conn, connInfo, err := OpenConnection(ctx, appConfig)
	if err != nil {
		return nil, err
	}

	s := &session{connInfo: connInfo}
	opts := append(appConfig.ClientOptions(), tower.WithLogger(logger))

	if appConfig.MetricsAddr != "" {
		reg := metrics.NewRegistry()
		s.collector = metrics.NewCollector(reg)
		s.collector.SetConnected(true)
		opts = append(opts, tower.WithObserver(s.collector))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		s.server = &http.Server{
			Addr:              appConfig.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", appConfig.MetricsAddr))
	}

	client, err := tower.Open(ctx, conn, appConfig.ClearOnOpen, opts...)
	if err != nil {
		conn.Close()
		s.shutdownMetrics()
		return nil, err
	}
	s.client = client
	logger.Info("connected", zap.String("connection", connInfo))
	return s, nil
}

func (s *session) shutdownMetrics() {
	if s.collector != nil {
		s.collector.SetConnected(false)
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}

// Close closes the client and stops the metrics server
func (s *session) Close() {
	if err := s.client.Close(); err != nil {
		logger.Warn("close failed", zap.Error(err))
	}
	s.shutdownMetrics()
}

// withClient runs fn against a freshly opened session
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *tower.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s.client)
}
