// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep makes client polling instant.
type noSleep struct{}

func (noSleep) Now() time.Time        { return time.Unix(0, 0) }
func (noSleep) Sleep(d time.Duration) {}

func newClient(t *testing.T, d *Device) *tower.Client {
	t.Helper()
	c, err := tower.NewClient(d, tower.WithClock(noSleep{}))
	require.NoError(t, err)
	return c
}

// ============================================================
// Device Tests
// ============================================================

func TestDevice_SetAndReadBack(t *testing.T) {
	d := NewDevice(WithChunkSize(2), WithReplyDelay(3))
	c := newClient(t, d)
	ctx := context.Background()

	led := tower.LEDStatus{Red: tower.LEDDuty, Green: tower.LEDOn, Pattern: tower.PatternBlink1}
	require.NoError(t, c.SetLED(ctx, tower.LayerTwo, led))

	got, err := c.GetLEDStatus(ctx, tower.LayerTwo)
	require.NoError(t, err)
	assert.Equal(t, led, got)

	buzzer := tower.BuzzerStatus{Tone: tower.ToneLow, Volume: tower.VolumeBig, Pattern: tower.BuzzerPattern2}
	require.NoError(t, c.SetBuzzer(ctx, buzzer))

	gotBuzzer, err := c.GetBuzzerStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, buzzer, gotBuzzer)

	snap := d.Snapshot()
	assert.Equal(t, led, snap.Layers[tower.LayerTwo])
	assert.Equal(t, tower.LEDsOff, snap.Layers[tower.LayerOne])
	assert.Equal(t, buzzer, snap.Buzzer)
}

func TestDevice_ClearTowerLight(t *testing.T) {
	d := NewDevice()
	c := newClient(t, d)
	ctx := context.Background()

	for _, layer := range tower.Layers {
		require.NoError(t, c.SetLED(ctx, layer, tower.LEDStatus{Red: tower.LEDOn, Pattern: tower.PatternOn}))
	}
	require.NoError(t, c.SetBuzzer(ctx, tower.BuzzerStatus{Pattern: tower.BuzzerPattern1}))

	require.NoError(t, c.ClearTowerLight(ctx))
	assert.Equal(t, tower.Snapshot{
		Layers: [3]tower.LEDStatus{tower.LEDsOff, tower.LEDsOff, tower.LEDsOff},
		Buzzer: tower.BuzzerSilent,
	}, d.Snapshot())

	commands, rejected := d.Counts()
	assert.Equal(t, uint64(8), commands)
	assert.Zero(t, rejected)
}

func TestDevice_RejectsBadFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"bad checksum", []byte{0x1B, 0x01, 0x00, 0x05, 0x00, 0x01, 0x00, 0x00, 0x01, 0x09, 0x0D}},
		{"invalid layer", []byte{0x1B, 0x01, 0x00, 0x05, 0x03, 0x01, 0x00, 0x00, 0x01, 0x0B, 0x0D}},
		{"invalid buzzer volume", []byte{0x1B, 0x02, 0x00, 0x03, 0x00, 0x03, 0x00, 0x08, 0x0D}},
		{"invalid selector", []byte{0x1B, 0x03, 0x00, 0x01, 0x04, 0x08, 0x0D}},
		{"unknown command", []byte{0x1B, 0x09, 0x00, 0x01, 0x00, 0x0A, 0x0D}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDevice()
			reply := d.Respond(tt.frame)
			require.Len(t, reply, tower.AckReplySize)
			assert.Equal(t, tt.frame[1], reply[1])
			assert.ErrorIs(t, tower.ValidateResponse(reply), tower.ErrResponseNack)
			assert.Equal(t, tower.Snapshot{Buzzer: tower.BuzzerSilent}, d.Snapshot())
		})
	}
}

func TestDevice_Faults(t *testing.T) {
	ctx := context.Background()

	t.Run("nak", func(t *testing.T) {
		d := NewDevice(WithFault(FaultNak))
		err := newClient(t, d).SetLED(ctx, tower.LayerOne, tower.LEDsOff)
		assert.ErrorIs(t, err, tower.ErrResponseNack)
	})

	t.Run("bad checksum", func(t *testing.T) {
		d := NewDevice(WithFault(FaultBadChecksum))
		_, err := newClient(t, d).GetBuzzerStatus(ctx)
		assert.ErrorIs(t, err, tower.ErrResponseChecksum)
	})

	t.Run("silent", func(t *testing.T) {
		d := NewDevice(WithFault(FaultSilent))
		err := newClient(t, d).StopBuzzer(ctx)
		assert.ErrorIs(t, err, tower.ErrTimeout)
	})

	t.Run("cleared", func(t *testing.T) {
		d := NewDevice(WithFault(FaultSilent))
		d.SetFault(FaultNone)
		assert.NoError(t, newClient(t, d).StopBuzzer(ctx))
	})
}

func TestParseFault(t *testing.T) {
	for _, f := range []Fault{FaultNone, FaultNak, FaultBadChecksum, FaultSilent} {
		parsed, err := ParseFault(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
	_, err := ParseFault("explode")
	assert.Error(t, err)
}
