// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import "encoding/binary"

// declaredLen returns the payload length carried in a frame header.
func declaredLen(frame []byte) int {
	return int(binary.BigEndian.Uint16(frame[2:4]))
}

// ValidateResponse checks a complete reply frame. Checks run in a fixed
// order, so a frame that is both malformed and NAKed reports the format
// error:
//
//  1. minimum size and start byte (ErrResponseFormat)
//  2. declared length matches the frame size (ErrResponseFormat)
//  3. checksum (ErrResponseChecksum)
//  4. end byte (ErrResponseFormat)
//  5. ACK byte (ErrResponseNack)
func ValidateResponse(resp []byte) error {
	if len(resp) < MinResponseSize {
		return wrapf(ErrResponseFormat, "reply too short: %d bytes", len(resp))
	}
	if resp[0] != StartByte {
		return wrapf(ErrResponseFormat, "bad start byte 0x%02X", resp[0])
	}

	dataLen := declaredLen(resp)
	if dataLen != len(resp)-FrameOverhead {
		return wrapf(ErrResponseFormat, "declared length %d, frame carries %d", dataLen, len(resp)-FrameOverhead)
	}

	calculated := Checksum(resp[1 : HeaderSize+dataLen])
	received := resp[len(resp)-2]
	if calculated != received {
		return wrapf(ErrResponseChecksum, "expected 0x%02X, got 0x%02X", calculated, received)
	}

	if resp[len(resp)-1] != EndByte {
		return wrapf(ErrResponseFormat, "bad end byte 0x%02X", resp[len(resp)-1])
	}

	if resp[offsetAck] != AckByte {
		return wrapf(ErrResponseNack, "ack byte 0x%02X", resp[offsetAck])
	}

	return nil
}
