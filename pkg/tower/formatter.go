// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable line
func FormatFrame(f *Frame) string {
	timestamp := f.timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] %s (0x%02X) len=%d %s\n",
		timestamp, FormatCommandType(f.cmdType), f.cmdType, len(f.payload), FormatPayload(f.cmdType, f.payload))
}

// FormatCommandType returns the human-readable name for a command type
func FormatCommandType(cmdType byte) string {
	switch cmdType {
	case CmdLEDSet:
		return "LED_SET"
	case CmdBuzzerSet:
		return "BUZZER_SET"
	case CmdStatusRead:
		return "STATUS_READ"
	default:
		return "UNKNOWN"
	}
}

// FormatPayload describes a payload based on command type and length. The
// same command type is used for requests and replies, so the length tells
// them apart.
func FormatPayload(cmdType byte, payload []byte) string {
	switch {
	case len(payload) == 1 && (payload[0] == AckByte || payload[0] == NakByte) && cmdType != CmdStatusRead:
		return formatAck(payload[0])

	case cmdType == CmdLEDSet && len(payload) == LEDSetDataLen:
		status := LEDStatus{
			Red:     LEDState(payload[1]),
			Green:   LEDState(payload[2]),
			Blue:    LEDState(payload[3]),
			Pattern: LEDPattern(payload[4]),
		}
		return fmt.Sprintf("layer=%s %s", Layer(payload[0]), status)

	case cmdType == CmdBuzzerSet && len(payload) == BuzzerSetDataLen:
		status := BuzzerStatus{
			Tone:    BuzzerTone(payload[0]),
			Volume:  BuzzerVolume(payload[1]),
			Pattern: BuzzerPattern(payload[2]),
		}
		return status.String()

	case cmdType == CmdStatusRead && len(payload) == StatusReadDataLen:
		return "select=" + StatusSelector(payload[0]).String()

	case cmdType == CmdStatusRead && len(payload) == LEDStatusReplySize-FrameOverhead:
		status := LEDStatus{
			Red:     LEDState(payload[2]),
			Green:   LEDState(payload[3]),
			Blue:    LEDState(payload[4]),
			Pattern: LEDPattern(payload[5]),
		}
		return fmt.Sprintf("%s layer=%s %s", formatAck(payload[0]), Layer(payload[1]), status)

	case cmdType == CmdStatusRead && len(payload) == BuzzerStatusReplySize-FrameOverhead:
		status := BuzzerStatus{
			Tone:    BuzzerTone(payload[1]),
			Volume:  BuzzerVolume(payload[2]),
			Pattern: BuzzerPattern(payload[3]),
		}
		return fmt.Sprintf("%s buzzer %s", formatAck(payload[0]), status)

	default:
		return FormatBytes(payload)
	}
}

func formatAck(b byte) string {
	switch b {
	case AckByte:
		return "ACK"
	case NakByte:
		return "NAK"
	default:
		return fmt.Sprintf("ack=0x%02X", b)
	}
}

// FormatBytes renders bytes as space-separated hex
func FormatBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
