// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import "time"

// Frame is a command or reply frame recovered from a byte stream.
type Frame struct {
	cmdType   byte
	payload   []byte
	checksum  byte
	raw       []byte
	timestamp time.Time
}

// Type returns the frame's command type
func (f *Frame) Type() byte {
	return f.cmdType
}

// Payload returns the frame's payload bytes
func (f *Frame) Payload() []byte {
	return f.payload
}

// Checksum returns the checksum byte carried by the frame
func (f *Frame) Checksum() byte {
	return f.checksum
}

// Bytes returns the complete frame as received, framing included
func (f *Frame) Bytes() []byte {
	return f.raw
}

// Timestamp returns when the frame's end byte was decoded
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}
