// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Statistics tracks exchange outcomes and error rates
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalExchanges   uint64
	Successful       uint64
	WriteFailures    uint64
	ReadFailures     uint64
	Timeouts         uint64
	FormatErrors     uint64
	ChecksumErrors   uint64
	Nacks            uint64
	OtherErrors      uint64
	EmptyPolls       uint64
	TotalExchangeDur time.Duration

	// Rates (calculated)
	ExchangeRate float64 // exchanges/sec
	ErrorRate    float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Record updates statistics with the outcome of one exchange
func (s *Statistics) Record(result ExchangeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalExchanges++
	s.EmptyPolls += uint64(result.EmptyPolls)
	s.TotalExchangeDur += result.Duration

	err := result.Err
	switch {
	case err == nil:
		s.Successful++
	case errors.Is(err, ErrWriteFailed):
		s.WriteFailures++
	case errors.Is(err, ErrReadFailed):
		s.ReadFailures++
	case errors.Is(err, ErrTimeout):
		s.Timeouts++
	case errors.Is(err, ErrResponseChecksum):
		s.ChecksumErrors++
	case errors.Is(err, ErrResponseNack):
		s.Nacks++
	case errors.Is(err, ErrResponseFormat):
		s.FormatErrors++
	default:
		s.OtherErrors++
	}

	s.LastUpdateTime = time.Now()
}

// Failed returns the number of exchanges that did not succeed
func (s *Statistics) Failed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TotalExchanges - s.Successful
}

// Counts returns the exchange totals and the current exchange rate under the lock
func (s *Statistics) Counts() (total, successful uint64, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
	return s.TotalExchanges, s.Successful, s.ExchangeRate
}

// CalculateRates calculates exchange and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ExchangeRate = float64(s.TotalExchanges) / elapsed
		s.ErrorRate = float64(s.TotalExchanges-s.Successful) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()

	percent := func(n uint64) float64 {
		if s.TotalExchanges == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalExchanges)
	}

	var avg time.Duration
	if s.TotalExchanges > 0 {
		avg = s.TotalExchangeDur / time.Duration(s.TotalExchanges)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&sb, "Exchanges:       %8d\n", s.TotalExchanges)
	fmt.Fprintf(&sb, "Successful:      %8d (%.1f%%)\n", s.Successful, percent(s.Successful))

	for _, row := range []struct {
		label string
		n     uint64
	}{
		{"Write Failures:  ", s.WriteFailures},
		{"Read Failures:   ", s.ReadFailures},
		{"Timeouts:        ", s.Timeouts},
		{"Format Errors:   ", s.FormatErrors},
		{"Checksum Errors: ", s.ChecksumErrors},
		{"NAKs:            ", s.Nacks},
		{"Other Errors:    ", s.OtherErrors},
	} {
		if row.n > 0 {
			fmt.Fprintf(&sb, "%s%8d (%.1f%%)\n", row.label, row.n, percent(row.n))
		}
	}

	fmt.Fprintf(&sb, "Empty Polls:     %8d\n", s.EmptyPolls)
	fmt.Fprintf(&sb, "Avg Exchange:    %8s\n", avg.Round(time.Microsecond))
	fmt.Fprintf(&sb, "Exchange Rate:   %8.1f /sec\n", s.ExchangeRate)
	fmt.Fprintf(&sb, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	sb.WriteString("================================\n")
	return sb.String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalExchanges = 0
	s.Successful = 0
	s.WriteFailures = 0
	s.ReadFailures = 0
	s.Timeouts = 0
	s.FormatErrors = 0
	s.ChecksumErrors = 0
	s.Nacks = 0
	s.OtherErrors = 0
	s.EmptyPolls = 0
	s.TotalExchangeDur = 0
	s.ExchangeRate = 0
	s.ErrorRate = 0
}
