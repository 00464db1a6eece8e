// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

// Decoder states
const (
	stateIdle = iota
	stateType
	stateLengthHi
	stateLengthLo
	statePayload
	stateChecksum
	stateEnd
)

// Decoder recovers frames from a byte stream one byte at a time.
//
// The protocol has no byte stuffing, so a start byte only begins a frame
// while the decoder is idle. Any framing or checksum error drops the partial
// frame and returns the decoder to idle.
type Decoder struct {
	state    int
	dataLen  int
	frame    *Frame
	lastType byte
	clock    Clock
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{state: stateIdle, clock: SystemClock{}}
}

// Reset drops any partial frame
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.dataLen = 0
	d.frame = nil
}

// LastType returns the command type of the most recently started frame,
// including one that was later rejected
func (d *Decoder) LastType() byte {
	return d.lastType
}

// Pending reports whether a frame is partially decoded
func (d *Decoder) Pending() bool {
	return d.state != stateIdle
}

// DecodeByte feeds one byte to the decoder.
// Returns a completed frame, or nil if the frame is incomplete.
// Returns an error wrapping ErrResponseFormat or ErrResponseChecksum when a
// frame is rejected.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	if d.state != stateIdle {
		d.frame.raw = append(d.frame.raw, b)
	}

	switch d.state {
	case stateIdle:
		if b == StartByte {
			d.frame = &Frame{raw: append(make([]byte, 0, MaxFrameSize), b)}
			d.state = stateType
		}
		return nil, nil

	case stateType:
		d.frame.cmdType = b
		d.lastType = b
		d.state = stateLengthHi
		return nil, nil

	case stateLengthHi:
		d.dataLen = int(b) << 8
		d.state = stateLengthLo
		return nil, nil

	case stateLengthLo:
		d.dataLen |= int(b)
		if d.dataLen > MaxFrameSize-FrameOverhead {
			n := d.dataLen
			d.Reset()
			return nil, wrapf(ErrResponseFormat, "invalid length: %d", n)
		}
		d.frame.payload = make([]byte, 0, d.dataLen)
		if d.dataLen == 0 {
			d.state = stateChecksum
		} else {
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		d.frame.payload = append(d.frame.payload, b)
		if len(d.frame.payload) >= d.dataLen {
			d.state = stateChecksum
		}
		return nil, nil

	case stateChecksum:
		d.frame.checksum = b
		d.state = stateEnd
		return nil, nil

	case stateEnd:
		frame := d.frame
		d.Reset()

		if b != EndByte {
			return nil, wrapf(ErrResponseFormat, "expected end byte, got 0x%02X", b)
		}
		calculated := Checksum(frame.raw[1 : HeaderSize+len(frame.payload)])
		if calculated != frame.checksum {
			return nil, wrapf(ErrResponseChecksum, "expected 0x%02X, got 0x%02X", calculated, frame.checksum)
		}

		frame.timestamp = d.clock.Now()
		return frame, nil

	default:
		d.Reset()
		return nil, wrapf(ErrGeneral, "invalid decoder state: %d", d.state)
	}
}

// Decode feeds a chunk of bytes to the decoder and returns every frame it
// completes. Decode errors are collected alongside and do not stop decoding.
func (d *Decoder) Decode(data []byte) ([]*Frame, []error) {
	var frames []*Frame
	var errs []error
	for _, b := range data {
		frame, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames, errs
}
