// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Thermoquad/pharos/pkg/simulator"
	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantClock struct{}

func (instantClock) Now() time.Time      { return time.Unix(0, 0) }
func (instantClock) Sleep(time.Duration) {}

func TestResult(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, "ok"},
		{tower.ErrTimeout, "timeout"},
		{tower.ErrResponseNack, "nak"},
		{tower.ErrResponseChecksum, "checksum"},
		{tower.ErrResponseFormat, "format"},
		{tower.ErrWriteFailed, "write_failed"},
		{tower.ErrReadFailed, "read_failed"},
		{tower.ErrInvalidParameter, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Result(tt.err))
		})
	}
}

func TestCollector_ObservesClientExchanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	device := simulator.NewDevice()
	c, err := tower.NewClient(device, tower.WithObserver(collector), tower.WithClock(instantClock{}))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.ClearAllLEDs(ctx))
	_, err = c.GetBuzzerStatus(ctx)
	require.NoError(t, err)

	device.SetFault(simulator.FaultNak)
	require.Error(t, c.StopBuzzer(ctx))

	assert.Equal(t, 3.0, testutil.ToFloat64(collector.Exchanges.WithLabelValues("led_set", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Exchanges.WithLabelValues("status_read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Exchanges.WithLabelValues("buzzer_set", "nak")))

	collector.SetConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Connected))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	collector := NewCollector(reg)
	collector.ObserveExchange(tower.ExchangeResult{Command: tower.CmdLEDSet, Duration: time.Millisecond})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `pharos_exchanges_total{command="led_set",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
