package timer

import (
	"context"
	"time"

	"github.com/hammamikhairi/ottolift/internal/domain"
)

// Compile-time interface check.
var _ domain.Scheduler = (*ManualClock)(nil)

// ManualClock is a scheduler driven by simulated time. Nothing happens
// until Advance is called; due ticks then fire synchronously on the
// caller's goroutine in deadline order, ties broken by registration order.
// Used for headless simulations and tests. Not safe for concurrent use.
type ManualClock struct {
	now     time.Duration
	seq     int
	tickers []*manualTicker
}

type manualTicker struct {
	interval time.Duration
	next     time.Duration
	seq      int
	fn       func()
	stopped  bool
}

func (t *manualTicker) Stop() { t.stopped = true }

// NewManualClock creates a clock at simulated time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Every registers a ticker whose first tick is one interval from now.
// It panics if interval is not positive.
func (m *ManualClock) Every(interval time.Duration, fn func()) domain.TickHandle {
	if interval <= 0 {
		panic("timer: non-positive interval for ManualClock.Every")
	}
	m.seq++
	t := &manualTicker{
		interval: interval,
		next:     m.now + interval,
		seq:      m.seq,
		fn:       fn,
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Do runs fn immediately.
func (m *ManualClock) Do(_ context.Context, fn func()) error {
	fn()
	return nil
}

// Advance moves simulated time forward by d, firing every tick that falls
// due on the way. Tickers started or stopped by a tick take effect at the
// tick's simulated time.
func (m *ManualClock) Advance(d time.Duration) {
	target := m.now + d
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next += t.interval
		t.fn()
	}
	m.now = target
	m.prune()
}

// Now returns the simulated time elapsed since the clock was created.
func (m *ManualClock) Now() time.Duration { return m.now }

// Active returns the number of tickers that have not been stopped.
func (m *ManualClock) Active() int {
	n := 0
	for _, t := range m.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *ManualClock) nextDue(target time.Duration) *manualTicker {
	var best *manualTicker
	for _, t := range m.tickers {
		if t.stopped || t.next > target {
			continue
		}
		if best == nil || t.next < best.next || (t.next == best.next && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *ManualClock) prune() {
	live := m.tickers[:0]
	for _, t := range m.tickers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.tickers = live
}
