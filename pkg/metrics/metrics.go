// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports tower exchange metrics to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharos"

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Collector records tower exchanges. It implements tower.Observer.
type Collector struct {
	Exchanges  *prometheus.CounterVec   // labels: command, result
	Duration   *prometheus.HistogramVec // labels: command
	EmptyPolls prometheus.Histogram
	Connected  prometheus.Gauge
}

// NewCollector registers and returns the exchange metrics
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Tower command exchanges by command and result.",
		}, []string{"command", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Time from command write to complete reply.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"command"}),
		EmptyPolls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "empty_polls",
			Help:      "Polls per exchange that returned no bytes.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while a tower connection is open.",
		}),
	}
	reg.MustRegister(c.Exchanges, c.Duration, c.EmptyPolls, c.Connected)
	return c
}

// ObserveExchange implements tower.Observer
func (c *Collector) ObserveExchange(r tower.ExchangeResult) {
	command := commandLabel(r.Command)
	c.Exchanges.WithLabelValues(command, Result(r.Err)).Inc()
	c.Duration.WithLabelValues(command).Observe(r.Duration.Seconds())
	c.EmptyPolls.Observe(float64(r.EmptyPolls))
}

// SetConnected sets the connection gauge
func (c *Collector) SetConnected(connected bool) {
	if connected {
		c.Connected.Set(1)
	} else {
		c.Connected.Set(0)
	}
}

func commandLabel(cmdType byte) string {
	switch cmdType {
	case tower.CmdLEDSet:
		return "led_set"
	case tower.CmdBuzzerSet:
		return "buzzer_set"
	case tower.CmdStatusRead:
		return "status_read"
	default:
		return "unknown"
	}
}

// Result maps an exchange error to a bounded label value
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tower.ErrTimeout):
		return "timeout"
	case errors.Is(err, tower.ErrResponseNack):
		return "nak"
	case errors.Is(err, tower.ErrResponseChecksum):
		return "checksum"
	case errors.Is(err, tower.ErrResponseFormat):
		return "format"
	case errors.Is(err, tower.ErrWriteFailed):
		return "write_failed"
	case errors.Is(err, tower.ErrReadFailed):
		return "read_failed"
	default:
		return "error"
	}
}
