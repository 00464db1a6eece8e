// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package tower implements the signal tower serial protocol.
//
// A signal tower is a stacked indicator light with three LED layers and a
// buzzer. The host sends fixed-size command frames and the tower answers each
// one with a reply frame carrying an ACK/NAK byte or a status payload. This
// package provides frame encoding, checksum computation, response assembly
// over a non-blocking transport, response validation and status decoding,
// plus a Client that serializes exchanges against a single device.
package tower

// Protocol framing bytes
const (
	StartByte = 0x1B
	EndByte   = 0x0D
	AckByte   = 0x06
	NakByte   = 0x15
)

// Command types
const (
	CmdLEDSet     = 0x01
	CmdBuzzerSet  = 0x02
	CmdStatusRead = 0x03
)

// Payload lengths per command type
const (
	LEDSetDataLen     = 5 // layer, red, green, blue, pattern
	BuzzerSetDataLen  = 3 // tone, volume, pattern
	StatusReadDataLen = 1 // selector
)

// Frame layout
const (
	HeaderSize    = 4 // start, type, length hi, length lo
	TrailerSize   = 2 // checksum, end
	FrameOverhead = HeaderSize + TrailerSize

	MinResponseSize = FrameOverhead

	LEDSetFrameSize     = FrameOverhead + LEDSetDataLen
	BuzzerSetFrameSize  = FrameOverhead + BuzzerSetDataLen
	StatusReadFrameSize = FrameOverhead + StatusReadDataLen

	// MaxFrameSize bounds any frame this package produces or expects.
	MaxFrameSize = 64
)

// Reply sizes sent by the tower
const (
	AckReplySize          = FrameOverhead + 1
	LEDStatusReplySize    = FrameOverhead + 6 // ack, layer, red, green, blue, pattern
	BuzzerStatusReplySize = FrameOverhead + 4 // ack, tone, volume, pattern
)

// Reply field offsets. The LED reply carries the layer byte at offset 5,
// the buzzer reply does not, so the two layouts differ by one.
const (
	offsetAck = 4

	offsetLEDRed     = 6
	offsetLEDGreen   = 7
	offsetLEDBlue    = 8
	offsetLEDPattern = 9

	offsetBuzzerTone    = 5
	offsetBuzzerVolume  = 6
	offsetBuzzerPattern = 7
)

// Exchange timing defaults
const (
	DefaultTimeoutMs      = 1000
	DefaultPollIntervalMs = 10
)
