// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"errors"
	"sync"
	"time"
)

// ============================================================
// Test Doubles
// ============================================================

// fakeClock advances only when slept on.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

// scriptedTransport replies to each write with the next queued reply,
// released chunk bytes per read after delay empty reads.
type scriptedTransport struct {
	replies  [][]byte
	chunk    int
	delay    int
	writeErr error
	shortBy  int
	readErr  error

	written [][]byte
	pending []byte
	waited  int
	reads   int
	closed  bool
}

func (s *scriptedTransport) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, append([]byte(nil), p...))
	if len(s.replies) > 0 {
		s.pending = append(s.pending, s.replies[0]...)
		s.replies = s.replies[1:]
	}
	s.waited = 0
	return len(p) - s.shortBy, nil
}

func (s *scriptedTransport) Read(p []byte) (int, error) {
	s.reads++
	if s.readErr != nil {
		return 0, s.readErr
	}
	if s.waited < s.delay {
		s.waited++
		return 0, nil
	}
	n := len(s.pending)
	if s.chunk > 0 && n > s.chunk {
		n = s.chunk
	}
	n = copy(p, s.pending[:n])
	s.pending = s.pending[n:]
	return n, nil
}

func (s *scriptedTransport) Close() error {
	if s.closed {
		return errors.New("already closed")
	}
	s.closed = true
	return nil
}

// recordingObserver collects exchange results.
type recordingObserver struct {
	results []ExchangeResult
}

func (r *recordingObserver) ObserveExchange(res ExchangeResult) {
	r.results = append(r.results, res)
}
