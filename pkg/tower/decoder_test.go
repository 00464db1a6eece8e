// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Decoder Tests
// ============================================================

func decodeAll(t *testing.T, d *Decoder, data []byte) []*Frame {
	t.Helper()
	frames, errs := d.Decode(data)
	require.Empty(t, errs)
	return frames
}

func TestDecoder_SingleFrame(t *testing.T) {
	cmd, err := BuildLEDSetCmd(LayerThree, LEDStatus{Blue: LEDOn, Pattern: PatternBlink2})
	require.NoError(t, err)

	frames := decodeAll(t, NewDecoder(), cmd)
	require.Len(t, frames, 1)
	assert.Equal(t, byte(CmdLEDSet), frames[0].Type())
	assert.Equal(t, []byte{0x02, 0x00, 0x00, 0x01, 0x03}, frames[0].Payload())
	assert.Equal(t, cmd, frames[0].Bytes())
	assert.Equal(t, cmd[9], frames[0].Checksum())
	assert.False(t, frames[0].Timestamp().IsZero())
}

func TestDecoder_BackToBackWithNoise(t *testing.T) {
	a, _ := BuildStatusReadCmd(SelectorBuzzer)
	b := EncodeLEDStatusReply(LayerOne, LEDStatus{Red: LEDOn})

	stream := append([]byte{0x00, 0xFF, 0x0D}, a...)
	stream = append(stream, 0x42)
	stream = append(stream, b...)

	frames := decodeAll(t, NewDecoder(), stream)
	require.Len(t, frames, 2)
	assert.Equal(t, a, frames[0].Bytes())
	assert.Equal(t, b, frames[1].Bytes())
}

func TestDecoder_StartByteInsidePayload(t *testing.T) {
	frame, err := EncodeFrame(0x7F, []byte{StartByte, EndByte, StartByte})
	require.NoError(t, err)

	frames := decodeAll(t, NewDecoder(), frame)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{StartByte, EndByte, StartByte}, frames[0].Payload())
}

func TestDecoder_EmptyPayload(t *testing.T) {
	frame, err := EncodeFrame(0x05, nil)
	require.NoError(t, err)

	frames := decodeAll(t, NewDecoder(), frame)
	require.Len(t, frames, 1)
	assert.Empty(t, frames[0].Payload())
}

func TestDecoder_Errors(t *testing.T) {
	good := EncodeAckReply(CmdLEDSet, true)

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"bad checksum", func() []byte { b := append([]byte(nil), good...); b[5]++; return b }(), ErrResponseChecksum},
		{"bad end byte", func() []byte { b := append([]byte(nil), good...); b[6] = 0x00; return b }(), ErrResponseFormat},
		{"oversized length", []byte{StartByte, 0x01, 0x01, 0x00}, ErrResponseFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			frames, errs := d.Decode(tt.data)
			assert.Empty(t, frames)
			require.Len(t, errs, 1)
			assert.ErrorIs(t, errs[0], tt.expected)
			assert.False(t, d.Pending())
		})
	}
}

func TestDecoder_RecoversAfterError(t *testing.T) {
	bad := EncodeAckReply(CmdLEDSet, true)
	bad[5] ^= 0x01
	good := EncodeAckReply(CmdBuzzerSet, true)

	frames, errs := NewDecoder().Decode(append(bad, good...))
	require.Len(t, errs, 1)
	require.Len(t, frames, 1)
	assert.Equal(t, good, frames[0].Bytes())
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	_, _ = d.Decode([]byte{StartByte, 0x01, 0x00})
	assert.True(t, d.Pending())
	d.Reset()
	assert.False(t, d.Pending())
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatCommandType(t *testing.T) {
	assert.Equal(t, "LED_SET", FormatCommandType(CmdLEDSet))
	assert.Equal(t, "BUZZER_SET", FormatCommandType(CmdBuzzerSet))
	assert.Equal(t, "STATUS_READ", FormatCommandType(CmdStatusRead))
	assert.Equal(t, "UNKNOWN", FormatCommandType(0x99))
}

func TestFormatFrame(t *testing.T) {
	tests := []struct {
		name     string
		frame    []byte
		contains string
	}{
		{"LED set", mustBuild(BuildLEDSetCmd(LayerTwo, LEDStatus{Red: LEDDuty, Pattern: PatternBlink1})), "layer=2 red=duty green=off blue=off pattern=blink1"},
		{"buzzer set", mustBuild(BuildBuzzerSetCmd(BuzzerSilent)), "tone=high volume=medium pattern=off"},
		{"status read", mustBuild(BuildStatusReadCmd(SelectorBuzzer)), "select=buzzer"},
		{"ack", EncodeAckReply(CmdLEDSet, true), "ACK"},
		{"nak", EncodeAckReply(CmdBuzzerSet, false), "NAK"},
		{"LED status", EncodeLEDStatusReply(LayerThree, LEDStatus{Green: LEDOn}), "ACK layer=3 red=off green=on"},
		{"buzzer status", EncodeBuzzerStatusReply(BuzzerStatus{Pattern: BuzzerPattern4}), "ACK buzzer tone=high volume=big pattern=pattern4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := decodeAll(t, NewDecoder(), tt.frame)
			require.Len(t, frames, 1)
			out := FormatFrame(frames[0])
			assert.True(t, strings.Contains(out, tt.contains), "got %q", out)
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "(empty)", FormatBytes(nil))
	assert.Equal(t, "1B 03 0D", FormatBytes([]byte{0x1B, 0x03, 0x0D}))
}

func mustBuild(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}
