// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

// DecodeLEDStatus extracts an LED layer status from a validated status-read
// reply. A reply shorter than LEDStatusReplySize is a caller error and
// reports ErrInvalidParameter.
func DecodeLEDStatus(resp []byte) (LEDStatus, error) {
	if len(resp) < LEDStatusReplySize {
		return LEDStatus{}, wrapf(ErrInvalidParameter, "LED status reply too short: %d bytes", len(resp))
	}
	if resp[1] != CmdStatusRead {
		return LEDStatus{}, wrapf(ErrResponseFormat, "LED status reply has command type 0x%02X", resp[1])
	}

	status := LEDStatus{
		Red:     LEDState(resp[offsetLEDRed]),
		Green:   LEDState(resp[offsetLEDGreen]),
		Blue:    LEDState(resp[offsetLEDBlue]),
		Pattern: LEDPattern(resp[offsetLEDPattern]),
	}
	if !status.Valid() {
		return LEDStatus{}, wrapf(ErrResponseFormat, "LED status out of range: % X", resp[offsetLEDRed:offsetLEDPattern+1])
	}
	return status, nil
}

// DecodeBuzzerStatus extracts the buzzer status from a validated status-read
// reply.
func DecodeBuzzerStatus(resp []byte) (BuzzerStatus, error) {
	if len(resp) < BuzzerStatusReplySize {
		return BuzzerStatus{}, wrapf(ErrInvalidParameter, "buzzer status reply too short: %d bytes", len(resp))
	}
	if resp[1] != CmdStatusRead {
		return BuzzerStatus{}, wrapf(ErrResponseFormat, "buzzer status reply has command type 0x%02X", resp[1])
	}

	status := BuzzerStatus{
		Tone:    BuzzerTone(resp[offsetBuzzerTone]),
		Volume:  BuzzerVolume(resp[offsetBuzzerVolume]),
		Pattern: BuzzerPattern(resp[offsetBuzzerPattern]),
	}
	if !status.Valid() {
		return BuzzerStatus{}, wrapf(ErrResponseFormat, "buzzer status out of range: % X", resp[offsetBuzzerTone:offsetBuzzerPattern+1])
	}
	return status, nil
}
