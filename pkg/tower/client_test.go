// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, tr *scriptedTransport, opts ...Option) (*Client, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c, err := NewClient(tr, append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return c, clock
}

func acks(cmdType byte, n int) [][]byte {
	replies := make([][]byte, n)
	for i := range replies {
		replies[i] = EncodeAckReply(cmdType, true)
	}
	return replies
}

// ============================================================
// Client Gate Tests
// ============================================================

func TestClient_ZeroValueNotInitialized(t *testing.T) {
	var c Client
	ctx := context.Background()

	assert.ErrorIs(t, c.SetLED(ctx, LayerOne, LEDsOff), ErrNotInitialized)
	_, err := c.GetBuzzerStatus(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, c.Close(), ErrNotInitialized)
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.LastError(), ErrNotInitialized)
}

func TestClient_NilTransport(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestClient_ClosedDeviceNotOpen(t *testing.T) {
	tr := &scriptedTransport{}
	c, _ := newTestClient(t, tr)
	require.True(t, c.IsConnected())

	require.NoError(t, c.Close())
	assert.True(t, tr.closed)
	assert.False(t, c.IsConnected())

	assert.ErrorIs(t, c.SetBuzzer(context.Background(), BuzzerSilent), ErrDeviceNotOpen)
	assert.ErrorIs(t, c.Close(), ErrDeviceNotOpen)
	assert.Empty(t, tr.written)
}

func TestClient_CancelledContext(t *testing.T) {
	tr := &scriptedTransport{replies: acks(CmdLEDSet, 1)}
	c, _ := newTestClient(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SetLED(ctx, LayerOne, LEDsOff)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.written)
}

// ============================================================
// Client Command Tests
// ============================================================

func TestClient_SetLED(t *testing.T) {
	tr := &scriptedTransport{replies: acks(CmdLEDSet, 1)}
	c, _ := newTestClient(t, tr)

	err := c.SetLED(context.Background(), LayerOne, LEDStatus{Red: LEDOn, Pattern: PatternOn})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x1B, 0x01, 0x00, 0x05, 0x00, 0x01, 0x00, 0x00, 0x01, 0x08, 0x0D}}, tr.written)
	assert.NoError(t, c.LastError())
}

func TestClient_SetLEDInvalidWritesNothing(t *testing.T) {
	tr := &scriptedTransport{}
	c, _ := newTestClient(t, tr)

	err := c.SetLED(context.Background(), Layer(7), LEDsOff)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Empty(t, tr.written)
	assert.ErrorIs(t, c.LastError(), ErrInvalidParameter)
}

func TestClient_GetLEDStatusRoundTrip(t *testing.T) {
	want := LEDStatus{Red: LEDDuty, Green: LEDOn, Blue: LEDOff, Pattern: PatternBlink1}
	tr := &scriptedTransport{
		replies: [][]byte{EncodeLEDStatusReply(LayerTwo, want)},
		chunk:   3,
		delay:   2,
	}
	c, _ := newTestClient(t, tr)

	got, err := c.GetLEDStatus(context.Background(), LayerTwo)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, [][]byte{{0x1B, 0x03, 0x00, 0x01, 0x01, 0x05, 0x0D}}, tr.written)
}

func TestClient_GetBuzzerStatus(t *testing.T) {
	want := BuzzerStatus{Tone: ToneLow, Volume: VolumeBig, Pattern: BuzzerPattern2}
	tr := &scriptedTransport{replies: [][]byte{EncodeBuzzerStatusReply(want)}, chunk: 1}
	c, _ := newTestClient(t, tr)

	got, err := c.GetBuzzerStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClient_Nack(t *testing.T) {
	tr := &scriptedTransport{replies: [][]byte{EncodeAckReply(CmdBuzzerSet, false)}}
	c, _ := newTestClient(t, tr)

	err := c.StopBuzzer(context.Background())
	assert.ErrorIs(t, err, ErrResponseNack)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, CodeResponseNack, CodeOf(c.LastError()))
}

func TestClient_LastErrorSurvivesSuccess(t *testing.T) {
	tr := &scriptedTransport{replies: [][]byte{
		EncodeAckReply(CmdLEDSet, false),
		EncodeAckReply(CmdLEDSet, true),
	}}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	assert.Error(t, c.SetLED(ctx, LayerOne, LEDsOff))
	assert.NoError(t, c.SetLED(ctx, LayerOne, LEDsOff))
	assert.ErrorIs(t, c.LastError(), ErrResponseNack)
}

func TestClient_ClearTowerLight(t *testing.T) {
	tr := &scriptedTransport{replies: append(acks(CmdLEDSet, 3), EncodeAckReply(CmdBuzzerSet, true))}
	c, _ := newTestClient(t, tr)

	require.NoError(t, c.ClearTowerLight(context.Background()))
	require.Len(t, tr.written, 4)
	for i, layer := range Layers {
		expected, err := BuildLEDSetCmd(layer, LEDsOff)
		require.NoError(t, err)
		assert.Equal(t, expected, tr.written[i])
	}
	assert.Equal(t, []byte{0x1B, 0x02, 0x00, 0x03, 0x00, 0x01, 0x00, 0x06, 0x0D}, tr.written[3])
}

func TestClient_ClearAllLEDsStopsAtFirstFailure(t *testing.T) {
	tr := &scriptedTransport{replies: [][]byte{
		EncodeAckReply(CmdLEDSet, true),
		EncodeAckReply(CmdLEDSet, false),
		EncodeAckReply(CmdLEDSet, true),
	}}
	c, _ := newTestClient(t, tr)

	err := c.ClearAllLEDs(context.Background())
	assert.ErrorIs(t, err, ErrResponseNack)
	assert.Len(t, tr.written, 2)
}

func TestOpen_ClearFailureOnlyRecorded(t *testing.T) {
	tr := &scriptedTransport{}
	core, logs := observer.New(zap.WarnLevel)

	c, err := Open(context.Background(), tr, true, WithClock(newFakeClock()), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.True(t, c.IsConnected())
	assert.ErrorIs(t, c.LastError(), ErrTimeout)
	assert.Equal(t, 1, logs.FilterMessage("clear on open failed").Len())
}

func TestClient_Timeout(t *testing.T) {
	tr := &scriptedTransport{}
	c, clock := newTestClient(t, tr)

	err := c.SetLED(context.Background(), LayerOne, LEDsOff)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 99, clock.sleepCount())
}

func TestClient_ObserverAndStatistics(t *testing.T) {
	tr := &scriptedTransport{replies: [][]byte{
		EncodeAckReply(CmdLEDSet, true),
		EncodeAckReply(CmdLEDSet, false),
	}, delay: 1}
	obs := &recordingObserver{}
	c, _ := newTestClient(t, tr, WithObserver(obs))
	ctx := context.Background()

	require.NoError(t, c.SetLED(ctx, LayerOne, LEDsOff))
	require.Error(t, c.SetLED(ctx, LayerTwo, LEDsOff))

	require.Len(t, obs.results, 2)
	assert.Equal(t, byte(CmdLEDSet), obs.results[0].Command)
	assert.NoError(t, obs.results[0].Err)
	assert.Equal(t, 1, obs.results[0].EmptyPolls)
	assert.ErrorIs(t, obs.results[1].Err, ErrResponseNack)

	stats := c.Statistics()
	assert.Equal(t, uint64(2), stats.TotalExchanges)
	assert.Equal(t, uint64(1), stats.Successful)
	assert.Equal(t, uint64(1), stats.Nacks)
	assert.Equal(t, uint64(1), stats.Failed())
	assert.Contains(t, stats.String(), "NAKs:")

	total, ok, _ := stats.Counts()
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, uint64(1), ok)

	stats.Reset()
	assert.Zero(t, stats.TotalExchanges)
}

func TestClient_ReadSnapshot(t *testing.T) {
	layers := [3]LEDStatus{
		{Red: LEDOn, Pattern: PatternOn},
		{Blue: LEDOn, Pattern: PatternBlink1},
		{Green: LEDDuty, Pattern: PatternBlink2},
	}
	buzzer := BuzzerStatus{Tone: ToneLow, Volume: VolumeSmall, Pattern: BuzzerPattern1}
	tr := &scriptedTransport{replies: [][]byte{
		EncodeLEDStatusReply(LayerOne, layers[0]),
		EncodeLEDStatusReply(LayerTwo, layers[1]),
		EncodeLEDStatusReply(LayerThree, layers[2]),
		EncodeBuzzerStatusReply(buzzer),
	}}
	c, _ := newTestClient(t, tr)

	snap, err := c.ReadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Layers: layers, Buzzer: buzzer}, snap)

	data, err := MarshalSnapshotCBOR(snap)
	require.NoError(t, err)
	decoded, err := UnmarshalSnapshotCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	js, err := MarshalSnapshotJSON(snap)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"buzzer"`)
	assert.Contains(t, snap.String(), "Layer 2: red=off green=off blue=on pattern=blink1")
}
