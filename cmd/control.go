// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling a signal tower",
	Long: `Control a signal tower via an interactive terminal UI.

Features:
  - Live view of all three LED layers and the buzzer
  - Per-channel editing with immediate apply
  - Exchange statistics
  - Event logging
  - Automatic reconnection on connection loss

Tab switches between the target list and the editor. In the editor, up/down
selects a field, left/right changes it and Enter applies the change.

Supports both serial and WebSocket connections.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	mu       sync.RWMutex
	sess     *session
	connInfo string
	done     chan struct{}
}

func (cm *connectionManager) client() *tower.Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.sess == nil {
		return nil
	}
	return cm.sess.client
}

func (cm *connectionManager) setSession(s *session) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.sess = s
	if s != nil {
		cm.connInfo = s.connInfo
	}
}

func (cm *connectionManager) close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.sess != nil {
		cm.sess.Close()
		cm.sess = nil
	}
}

// isConnectionLoss reports whether err means the transport is gone, as
// opposed to the tower rejecting or ignoring a command
func isConnectionLoss(err error) bool {
	return errors.Is(err, tower.ErrWriteFailed) ||
		errors.Is(err, tower.ErrReadFailed) ||
		errors.Is(err, tower.ErrDeviceNotOpen)
}

func runControl(cmd *cobra.Command, args []string) error {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	// Open initial connection (serial or WebSocket)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	cm := &connectionManager{done: make(chan struct{})}
	cm.setSession(s)

	m := initialControlModel(ctx, cm, s.connInfo)

	// Create TUI program with alt screen and mouse support
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	_, runErr := p.Run()
	close(cm.done) // Signal reconnect attempts to stop
	cancel()
	cm.close()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// reconnect closes the current session and opens a new one with exponential
// backoff. Returns false if shutdown was requested during reconnection.
func (cm *connectionManager) reconnect(ctx context.Context) (string, bool) {
	cm.close()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return "", false
		case <-ctx.Done():
			return "", false
		case <-time.After(backoff):
		}

		s, err := openSession(ctx)
		if err == nil {
			cm.setSession(s)
			return s.connInfo, true
		}
		logger.Debug("reconnect failed", zap.Error(err), zap.Duration("backoff", backoff))

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// reconnectCmd runs reconnect off the UI goroutine
func (cm *connectionManager) reconnectCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		connInfo, ok := cm.reconnect(ctx)
		if !ok {
			return nil
		}
		return reconnectedMsg{connInfo: connInfo}
	}
}
