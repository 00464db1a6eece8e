// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import "encoding/binary"

// putFrame writes a complete frame for cmdType and payload into buf, which
// the caller has already checked is large enough.
func putFrame(buf []byte, cmdType byte, payload ...byte) int {
	buf[0] = StartByte
	buf[1] = cmdType
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[HeaderSize:], payload)

	end := HeaderSize + len(payload)
	buf[end] = Checksum(buf[1:end])
	buf[end+1] = EndByte
	return end + TrailerSize
}

// PutLEDSet encodes an LED-set command for layer into buf and returns the
// frame length. Nothing is written when an argument is out of range or buf
// is too small.
func PutLEDSet(buf []byte, layer Layer, status LEDStatus) (int, error) {
	if !layer.Valid() {
		return 0, wrapf(ErrInvalidParameter, "layer %d", layer)
	}
	if !status.Valid() {
		return 0, wrapf(ErrInvalidParameter, "LED status %s", status)
	}
	if len(buf) < LEDSetFrameSize {
		return 0, wrapf(ErrInvalidParameter, "buffer too small: %d < %d", len(buf), LEDSetFrameSize)
	}

	return putFrame(buf, CmdLEDSet,
		byte(layer),
		byte(status.Red),
		byte(status.Green),
		byte(status.Blue),
		byte(status.Pattern),
	), nil
}

// PutBuzzerSet encodes a buzzer-set command into buf and returns the frame
// length.
func PutBuzzerSet(buf []byte, status BuzzerStatus) (int, error) {
	if !status.Valid() {
		return 0, wrapf(ErrInvalidParameter, "buzzer status %s", status)
	}
	if len(buf) < BuzzerSetFrameSize {
		return 0, wrapf(ErrInvalidParameter, "buffer too small: %d < %d", len(buf), BuzzerSetFrameSize)
	}

	return putFrame(buf, CmdBuzzerSet,
		byte(status.Tone),
		byte(status.Volume),
		byte(status.Pattern),
	), nil
}

// PutStatusRead encodes a status-read command into buf and returns the frame
// length.
func PutStatusRead(buf []byte, sel StatusSelector) (int, error) {
	if !sel.Valid() {
		return 0, wrapf(ErrInvalidParameter, "status selector %d", sel)
	}
	if len(buf) < StatusReadFrameSize {
		return 0, wrapf(ErrInvalidParameter, "buffer too small: %d < %d", len(buf), StatusReadFrameSize)
	}

	return putFrame(buf, CmdStatusRead, byte(sel)), nil
}

// BuildLEDSetCmd returns a new LED-set command frame.
func BuildLEDSetCmd(layer Layer, status LEDStatus) ([]byte, error) {
	buf := make([]byte, LEDSetFrameSize)
	if _, err := PutLEDSet(buf, layer, status); err != nil {
		return nil, err
	}
	return buf, nil
}

// BuildBuzzerSetCmd returns a new buzzer-set command frame.
func BuildBuzzerSetCmd(status BuzzerStatus) ([]byte, error) {
	buf := make([]byte, BuzzerSetFrameSize)
	if _, err := PutBuzzerSet(buf, status); err != nil {
		return nil, err
	}
	return buf, nil
}

// BuildStatusReadCmd returns a new status-read command frame.
func BuildStatusReadCmd(sel StatusSelector) ([]byte, error) {
	buf := make([]byte, StatusReadFrameSize)
	if _, err := PutStatusRead(buf, sel); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeFrame builds an arbitrary frame around payload. The tower side of the
// link uses it to produce replies.
func EncodeFrame(cmdType byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize-FrameOverhead {
		return nil, wrapf(ErrInvalidParameter, "payload too large: %d bytes", len(payload))
	}
	buf := make([]byte, FrameOverhead+len(payload))
	putFrame(buf, cmdType, payload...)
	return buf, nil
}

// EncodeAckReply builds the one-byte ACK or NAK reply to a set command.
func EncodeAckReply(cmdType byte, ack bool) []byte {
	code := byte(NakByte)
	if ack {
		code = AckByte
	}
	buf := make([]byte, AckReplySize)
	putFrame(buf, cmdType, code)
	return buf
}

// EncodeLEDStatusReply builds the status-read reply for an LED layer.
func EncodeLEDStatusReply(layer Layer, status LEDStatus) []byte {
	buf := make([]byte, LEDStatusReplySize)
	putFrame(buf, CmdStatusRead,
		AckByte,
		byte(layer),
		byte(status.Red),
		byte(status.Green),
		byte(status.Blue),
		byte(status.Pattern),
	)
	return buf
}

// EncodeBuzzerStatusReply builds the status-read reply for the buzzer.
func EncodeBuzzerStatusReply(status BuzzerStatus) []byte {
	buf := make([]byte, BuzzerStatusReplySize)
	putFrame(buf, CmdStatusRead,
		AckByte,
		byte(status.Tone),
		byte(status.Volume),
		byte(status.Pattern),
	)
	return buf
}
