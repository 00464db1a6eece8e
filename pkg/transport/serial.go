// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport provides the byte links a tower client can run over:
// a local serial port and a WebSocket bridge.
package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialReadTimeout bounds each serial Read so it behaves as a poll.
const SerialReadTimeout = 5 * time.Millisecond

// SerialConfig describes a serial port.
type SerialConfig struct {
	Port     string
	BaudRate int
}

// Serial wraps a serial port as a non-blocking tower transport.
type Serial struct {
	port serial.Port
	name string
}

// OpenSerial opens a serial port 8N1 at the configured baud rate
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	// go.bug.st/serial returns (0, nil) when the read timeout expires
	if err := port.SetReadTimeout(SerialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}

	return &Serial{port: port, name: cfg.Port}, nil
}

// NewSerial wraps an already open port. The port's read timeout must make
// Read return when no data is available.
func NewSerial(port serial.Port, name string) *Serial {
	return &Serial{port: port, name: name}
}

func (s *Serial) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *Serial) Close() error {
	return s.port.Close()
}

// String describes the connection
func (s *Serial) String() string {
	return "Serial: " + s.name
}

// ListSerialPorts returns the serial ports present on the system
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
