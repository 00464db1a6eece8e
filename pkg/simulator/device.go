// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package simulator emulates a signal tower. A Device can be used directly
// as an in-memory transport, or served over WebSocket with Server.
package simulator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Thermoquad/pharos/pkg/tower"
	"go.uber.org/zap"
)

// Fault makes the device misbehave on purpose.
type Fault int

const (
	FaultNone        Fault = iota
	FaultNak               // reply NAK to every command
	FaultBadChecksum       // corrupt the reply checksum
	FaultSilent            // never reply
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultNak:
		return "nak"
	case FaultBadChecksum:
		return "bad-checksum"
	case FaultSilent:
		return "silent"
	default:
		return fmt.Sprintf("Fault(%d)", int(f))
	}
}

// ParseFault parses a fault name as printed by Fault.String.
func ParseFault(s string) (Fault, error) {
	for f := FaultNone; f <= FaultSilent; f++ {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return FaultNone, fmt.Errorf("unknown fault %q", s)
}

// Option configures a Device
type Option func(*Device)

// WithChunkSize limits how many reply bytes each Read returns.
func WithChunkSize(n int) Option {
	return func(d *Device) {
		d.chunk = n
	}
}

// WithReplyDelay makes the first n Reads after each command return nothing.
func WithReplyDelay(n int) Option {
	return func(d *Device) {
		d.delay = n
	}
}

// WithFault sets the initial fault.
func WithFault(f Fault) Option {
	return func(d *Device) {
		d.fault = f
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// Device is a simulated tower with three LED layers and a buzzer.
// It is safe for concurrent use.
type Device struct {
	mu      sync.Mutex
	layers  [len(tower.Layers)]tower.LEDStatus
	buzzer  tower.BuzzerStatus
	decoder *tower.Decoder
	fault   Fault
	logger  *zap.Logger

	out    []byte
	chunk  int
	delay  int
	waited int

	commands uint64
	rejected uint64
}

// NewDevice creates a device with every LED and the buzzer off.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		buzzer:  tower.BuzzerSilent,
		decoder: tower.NewDecoder(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Write feeds command bytes to the device. Replies become readable with Read.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	replies := d.process(p)
	if len(replies) > 0 {
		d.out = append(d.out, replies...)
		d.waited = 0
	}
	return len(p), nil
}

// Read returns pending reply bytes, honouring the configured delay and
// chunk size. It never blocks.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.out) == 0 {
		return 0, nil
	}
	if d.waited < d.delay {
		d.waited++
		return 0, nil
	}

	n := len(d.out)
	if d.chunk > 0 && n > d.chunk {
		n = d.chunk
	}
	n = copy(p, d.out[:n])
	d.out = d.out[n:]
	return n, nil
}

// Respond processes command bytes and returns the replies at once.
func (d *Device) Respond(p []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.process(p)
}

// SetFault changes the fault applied to subsequent replies.
func (d *Device) SetFault(f Fault) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fault = f
}

// Snapshot returns the device's current state.
func (d *Device) Snapshot() tower.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return tower.Snapshot{Layers: d.layers, Buzzer: d.buzzer}
}

// Counts returns how many frames were handled and how many were rejected.
func (d *Device) Counts() (commands, rejected uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commands, d.rejected
}

// process decodes p and builds the replies. Callers hold d.mu.
func (d *Device) process(p []byte) []byte {
	var out []byte
	for _, b := range p {
		frame, err := d.decoder.DecodeByte(b)
		if err != nil {
			d.commands++
			d.rejected++
			d.logger.Debug("rejected frame", zap.Error(err))
			out = append(out, d.finish(tower.EncodeAckReply(d.decoder.LastType(), false))...)
			continue
		}
		if frame == nil {
			continue
		}
		d.commands++
		reply := d.handle(frame)
		if reply[tower.HeaderSize] != tower.AckByte {
			d.rejected++
		}
		out = append(out, d.finish(reply)...)
	}
	return out
}

// finish applies the active fault to a reply.
func (d *Device) finish(reply []byte) []byte {
	switch d.fault {
	case FaultNak:
		return tower.EncodeAckReply(reply[1], false)
	case FaultBadChecksum:
		reply[len(reply)-2] ^= 0xFF
		return reply
	case FaultSilent:
		return nil
	default:
		return reply
	}
}

func (d *Device) handle(f *tower.Frame) []byte {
	payload := f.Payload()

	switch {
	case f.Type() == tower.CmdLEDSet && len(payload) == tower.LEDSetDataLen:
		layer := tower.Layer(payload[0])
		status := tower.LEDStatus{
			Red:     tower.LEDState(payload[1]),
			Green:   tower.LEDState(payload[2]),
			Blue:    tower.LEDState(payload[3]),
			Pattern: tower.LEDPattern(payload[4]),
		}
		if !layer.Valid() || !status.Valid() {
			return tower.EncodeAckReply(f.Type(), false)
		}
		d.layers[layer] = status
		d.logger.Info("LED set", zap.Stringer("layer", layer), zap.Stringer("status", status))
		return tower.EncodeAckReply(f.Type(), true)

	case f.Type() == tower.CmdBuzzerSet && len(payload) == tower.BuzzerSetDataLen:
		status := tower.BuzzerStatus{
			Tone:    tower.BuzzerTone(payload[0]),
			Volume:  tower.BuzzerVolume(payload[1]),
			Pattern: tower.BuzzerPattern(payload[2]),
		}
		if !status.Valid() {
			return tower.EncodeAckReply(f.Type(), false)
		}
		d.buzzer = status
		d.logger.Info("buzzer set", zap.Stringer("status", status))
		return tower.EncodeAckReply(f.Type(), true)

	case f.Type() == tower.CmdStatusRead && len(payload) == tower.StatusReadDataLen:
		sel := tower.StatusSelector(payload[0])
		switch {
		case sel.IsBuzzer():
			return tower.EncodeBuzzerStatusReply(d.buzzer)
		case sel.Valid():
			layer := tower.Layer(sel)
			return tower.EncodeLEDStatusReply(layer, d.layers[layer])
		}
		return tower.EncodeAckReply(f.Type(), false)

	default:
		return tower.EncodeAckReply(f.Type(), false)
	}
}
