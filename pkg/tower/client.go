// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExchangeResult describes one completed command/reply exchange.
type ExchangeResult struct {
	Command    byte
	Duration   time.Duration
	EmptyPolls int
	Err        error
}

// Observer receives the outcome of every exchange a Client performs.
type Observer interface {
	ObserveExchange(ExchangeResult)
}

// Config holds Client settings.
type Config struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Clock        Clock
	Logger       *zap.Logger
	Observers    []Observer
}

// Option configures a Client
type Option func(*Config)

// WithTimeout sets the reply budget per exchange
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithPollInterval sets the delay between empty polls
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithObserver adds an exchange observer
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observers = append(c.Observers, o)
	}
}

func defaultConfig() Config {
	def := DefaultAssemblerConfig()
	return Config{
		Timeout:      def.Timeout,
		PollInterval: def.PollInterval,
		Clock:        def.Clock,
		Logger:       def.Logger,
	}
}

// Client drives one signal tower over a Transport.
//
// A Client serializes exchanges, so it is safe for concurrent use, but only
// one command is ever in flight. The zero value is not usable: every method
// reports ErrNotInitialized. After Close every method reports
// ErrDeviceNotOpen.
type Client struct {
	mu        sync.Mutex
	transport Transport
	assembler *Assembler
	clock     Clock
	logger    *zap.Logger
	observers []Observer
	stats     *Statistics
	open      bool
	lastErr   error
}

// NewClient creates a client that owns transport. If transport implements
// io.Closer it is closed by Close.
func NewClient(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, wrapf(ErrInvalidParameter, "nil transport")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Client{
		transport: transport,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		observers: cfg.Observers,
		stats:     NewStatistics(),
		open:      true,
	}
	c.assembler = NewAssembler(transport, AssemblerConfig{
		Timeout:      cfg.Timeout,
		PollInterval: cfg.PollInterval,
		Clock:        cfg.Clock,
		Logger:       cfg.Logger,
	})
	return c, nil
}

// Open creates a client and, when clearState is set, turns every LED and
// the buzzer off. A failed clear does not fail Open; it is logged and kept
// as the client's LastError.
func Open(ctx context.Context, transport Transport, clearState bool, opts ...Option) (*Client, error) {
	c, err := NewClient(transport, opts...)
	if err != nil {
		return nil, err
	}
	if clearState {
		if err := c.ClearTowerLight(ctx); err != nil {
			c.logger.Warn("clear on open failed", zap.Error(err))
		}
	}
	return c, nil
}

// Close marks the client closed and closes the transport if it can be closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil {
		return c.fail(ErrNotInitialized)
	}
	if !c.open {
		return c.fail(ErrDeviceNotOpen)
	}
	c.open = false

	if closer, ok := c.transport.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return c.fail(fmt.Errorf("%w: close: %w", ErrGeneral, err))
		}
	}
	return nil
}

// IsConnected reports whether the client is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport != nil && c.open
}

// LastError returns the most recent failure. Successful calls do not clear it.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Statistics returns the client's exchange statistics.
func (c *Client) Statistics() *Statistics {
	return c.stats
}

// SetLED sets the colour channels and pattern of one layer.
func (c *Client) SetLED(ctx context.Context, layer Layer, status LEDStatus) error {
	var cmd [LEDSetFrameSize]byte
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(ctx); err != nil {
		return err
	}
	if _, err := PutLEDSet(cmd[:], layer, status); err != nil {
		return c.fail(err)
	}
	_, err := c.roundTrip(cmd[:], AckReplySize)
	return err
}

// GetLEDStatus reads the current state of one layer.
func (c *Client) GetLEDStatus(ctx context.Context, layer Layer) (LEDStatus, error) {
	var cmd [StatusReadFrameSize]byte
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(ctx); err != nil {
		return LEDStatus{}, err
	}
	if !layer.Valid() {
		return LEDStatus{}, c.fail(wrapf(ErrInvalidParameter, "layer %d", layer))
	}
	if _, err := PutStatusRead(cmd[:], SelectorForLayer(layer)); err != nil {
		return LEDStatus{}, c.fail(err)
	}
	resp, err := c.roundTrip(cmd[:], LEDStatusReplySize)
	if err != nil {
		return LEDStatus{}, err
	}
	status, err := DecodeLEDStatus(resp)
	if err != nil {
		return LEDStatus{}, c.fail(err)
	}
	return status, nil
}

// ClearAllLEDs turns every layer off, stopping at the first failure.
func (c *Client) ClearAllLEDs(ctx context.Context) error {
	for _, layer := range Layers {
		if err := c.SetLED(ctx, layer, LEDsOff); err != nil {
			return fmt.Errorf("clear layer %s: %w", layer, err)
		}
	}
	return nil
}

// SetBuzzer sets the buzzer tone, volume and pattern.
func (c *Client) SetBuzzer(ctx context.Context, status BuzzerStatus) error {
	var cmd [BuzzerSetFrameSize]byte
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(ctx); err != nil {
		return err
	}
	if _, err := PutBuzzerSet(cmd[:], status); err != nil {
		return c.fail(err)
	}
	_, err := c.roundTrip(cmd[:], AckReplySize)
	return err
}

// GetBuzzerStatus reads the current buzzer state.
func (c *Client) GetBuzzerStatus(ctx context.Context) (BuzzerStatus, error) {
	var cmd [StatusReadFrameSize]byte
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(ctx); err != nil {
		return BuzzerStatus{}, err
	}
	if _, err := PutStatusRead(cmd[:], SelectorBuzzer); err != nil {
		return BuzzerStatus{}, c.fail(err)
	}
	resp, err := c.roundTrip(cmd[:], BuzzerStatusReplySize)
	if err != nil {
		return BuzzerStatus{}, err
	}
	status, err := DecodeBuzzerStatus(resp)
	if err != nil {
		return BuzzerStatus{}, c.fail(err)
	}
	return status, nil
}

// StopBuzzer silences the buzzer.
func (c *Client) StopBuzzer(ctx context.Context) error {
	return c.SetBuzzer(ctx, BuzzerSilent)
}

// ClearTowerLight turns every LED and the buzzer off.
func (c *Client) ClearTowerLight(ctx context.Context) error {
	if err := c.ClearAllLEDs(ctx); err != nil {
		return err
	}
	return c.StopBuzzer(ctx)
}

// ready checks the client gate and the context. Callers hold c.mu.
func (c *Client) ready(ctx context.Context) error {
	if c.transport == nil {
		return c.fail(ErrNotInitialized)
	}
	if !c.open {
		return c.fail(ErrDeviceNotOpen)
	}
	if err := ctx.Err(); err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrGeneral, err))
	}
	return nil
}

// roundTrip performs one exchange and validates the reply. respSize is the
// reply size the command expects; the buffer holds at least MaxFrameSize so
// an unexpected but well-formed reply still reaches validation. Callers hold
// c.mu.
func (c *Client) roundTrip(cmd []byte, respSize int) ([]byte, error) {
	resp := make([]byte, max(respSize, MaxFrameSize))
	start := c.clock.Now()

	n, polls, err := c.assembler.exchange(cmd, resp)
	if err == nil {
		err = ValidateResponse(resp[:n])
	}

	result := ExchangeResult{
		Command:    cmd[1],
		Duration:   c.clock.Now().Sub(start),
		EmptyPolls: polls,
		Err:        err,
	}
	c.stats.Record(result)
	for _, o := range c.observers {
		o.ObserveExchange(result)
	}

	if err != nil {
		c.logger.Warn("exchange failed",
			zap.String("command", FormatCommandType(cmd[1])),
			zap.String("tx", FormatBytes(cmd)),
			zap.String("rx", FormatBytes(resp[:n])),
			zap.Error(err))
		return nil, c.fail(err)
	}

	c.logger.Debug("exchange ok",
		zap.String("command", FormatCommandType(cmd[1])),
		zap.Duration("duration", result.Duration),
		zap.Int("empty_polls", polls))
	return resp[:n], nil
}

// fail records err as the last error and returns it.
func (c *Client) fail(err error) error {
	c.lastErr = err
	return err
}

// IsRetryable reports whether a failed exchange may succeed if repeated.
// The client never retries on its own.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrResponseNack) ||
		errors.Is(err, ErrResponseChecksum)
}
