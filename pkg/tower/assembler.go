// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Transport is the byte link to the tower.
//
// Read must not block: it returns (0, nil) when no bytes are available yet.
// A Write that reports fewer bytes than requested is treated as a failure.
type Transport interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
}

// AssemblerConfig controls the response polling budget.
type AssemblerConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Clock        Clock
	Logger       *zap.Logger
}

// DefaultAssemblerConfig returns a 1000 ms budget polled every 10 ms.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		Timeout:      DefaultTimeoutMs * time.Millisecond,
		PollInterval: DefaultPollIntervalMs * time.Millisecond,
		Clock:        SystemClock{},
		Logger:       zap.NewNop(),
	}
}

// Assembler writes a command and collects the complete reply frame by
// polling a non-blocking transport.
type Assembler struct {
	transport    Transport
	clock        Clock
	pollInterval time.Duration
	maxAttempts  int
	logger       *zap.Logger
}

// NewAssembler creates an assembler for transport. Zero fields in cfg take
// their defaults.
func NewAssembler(transport Transport, cfg AssemblerConfig) *Assembler {
	def := DefaultAssemblerConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}

	attempts := int(cfg.Timeout / cfg.PollInterval)
	if attempts < 1 {
		attempts = 1
	}

	return &Assembler{
		transport:    transport,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		maxAttempts:  attempts,
		logger:       cfg.Logger,
	}
}

// MaxAttempts returns the number of empty polls tolerated before a timeout.
func (a *Assembler) MaxAttempts() int {
	return a.maxAttempts
}

// Exchange writes cmd and reads one complete reply into resp, returning the
// reply length. The reply is not validated.
func (a *Assembler) Exchange(cmd, resp []byte) (int, error) {
	n, _, err := a.exchange(cmd, resp)
	return n, err
}

// exchange is Exchange that also reports how many polls came back empty.
func (a *Assembler) exchange(cmd, resp []byte) (int, int, error) {
	if len(cmd) == 0 {
		return 0, 0, wrapf(ErrInvalidParameter, "empty command")
	}
	if len(resp) < MinResponseSize {
		return 0, 0, wrapf(ErrInvalidParameter, "response buffer too small: %d < %d", len(resp), MinResponseSize)
	}

	a.logger.Debug("tx", zap.String("frame", fmt.Sprintf("% X", cmd)))

	written, err := a.transport.Write(cmd)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if written != len(cmd) {
		return 0, 0, wrapf(ErrWriteFailed, "short write: %d of %d bytes", written, len(cmd))
	}

	received := 0
	want := HeaderSize
	attempts := 0

	for received < want {
		got, err := a.transport.Read(resp[received:want])
		if err != nil {
			return received, attempts, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		if got > 0 {
			headerDone := received < HeaderSize && received+got >= HeaderSize
			received += got
			if headerDone {
				total := HeaderSize + declaredLen(resp) + TrailerSize
				if len(resp) < total {
					return received, attempts, wrapf(ErrInvalidParameter,
						"response buffer too small for declared frame: %d < %d", len(resp), total)
				}
				want = total
			}
			continue
		}

		attempts++
		if attempts >= a.maxAttempts {
			a.logger.Debug("rx timeout",
				zap.Int("received", received),
				zap.Int("expected", want),
				zap.Int("attempts", attempts))
			return received, attempts, wrapf(ErrTimeout, "%d of %d bytes after %d polls", received, want, attempts)
		}
		a.clock.Sleep(a.pollInterval)
	}

	a.logger.Debug("rx", zap.String("frame", fmt.Sprintf("% X", resp[:received])))
	return received, attempts, nil
}
