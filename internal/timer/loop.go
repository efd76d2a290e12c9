// Package timer implements the rest countdown and the tempo tracker, plus
// the schedulers that drive them: Loop for real time and ManualClock for
// simulated time.
package timer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.Scheduler = (*Loop)(nil)

// Option configures the loop.
type Option func(*Loop)

// WithQueueSize sets the job queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		l.jobs = make(chan func(), n)
	}
}

// WithMaxLag sets how far a ticker may fall behind its schedule before it
// gives up on the missed ticks and re-anchors at the current time. Below
// this lag, missed ticks are delivered back to back.
func WithMaxLag(d time.Duration) Option {
	return func(l *Loop) {
		l.maxLag = d
	}
}

// Loop is a single-goroutine cooperative scheduler. Ticks from every
// ticker and every function passed to Do run one at a time, in order, on
// the goroutine that called Run.
//
// Tickers use absolute deadlines (start + n*interval), so jitter on one
// tick never pushes the following ticks back. A ticker posts its next tick
// only after the previous one has finished running.
type Loop struct {
	log    *logger.Logger
	jobs   chan func()
	done   chan struct{} // closed when Run returns
	maxLag time.Duration
	now    func() time.Time

	mu      sync.Mutex
	running bool
}

// NewLoop creates a scheduler loop. Call Run to start processing.
func NewLoop(log *logger.Logger, opts ...Option) *Loop {
	l := &Loop{
		log:    log,
		jobs:   make(chan func(), 64),
		done:   make(chan struct{}),
		maxLag: time.Second,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes jobs until ctx is cancelled. Blocks. A loop runs once;
// after Run returns, Do reports domain.ErrSchedulerStopped and every
// ticker exits.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("timer loop already running")
	}
	l.running = true
	l.mu.Unlock()

	defer close(l.done)
	l.log.Info("loop started (queue=%d, max lag=%s)", cap(l.jobs), l.maxLag)

	for {
		select {
		case <-ctx.Done():
			l.log.Info("loop stopped")
			return nil
		case job := <-l.jobs:
			job()
		}
	}
}

// Job states for Do. A queued job runs only if it moves from pending to
// running before the caller gives up on it.
const (
	jobPending int32 = iota
	jobRunning
	jobCancelled
)

// Do runs fn on the loop goroutine and waits for it to return. If ctx ends
// or the loop stops before fn starts, fn never runs and Do returns the
// error. Once fn has started, Do waits for it and returns nil.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	job := func() {
		defer close(finished)
		if !state.CompareAndSwap(jobPending, jobRunning) {
			return
		}
		fn()
	}

	select {
	case l.jobs <- job:
	case <-l.done:
		return domain.ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	select {
	case <-finished:
		return nil
	case <-l.done:
		err = domain.ErrSchedulerStopped
	case <-ctx.Done():
		err = ctx.Err()
	}

	if state.CompareAndSwap(jobPending, jobCancelled) {
		return err
	}
	// fn already started; it owns the caller's variables until it returns.
	<-finished
	return nil
}

// Every starts a ticker that runs fn on the loop once per interval.
// It panics if interval is not positive, like time.NewTicker.
func (l *Loop) Every(interval time.Duration, fn func()) domain.TickHandle {
	if interval <= 0 {
		panic("timer: non-positive interval for Loop.Every")
	}
	t := &loopTicker{stopCh: make(chan struct{})}
	go l.drive(t, interval, fn)
	return t
}

// drive feeds one ticker's ticks into the job queue.
func (l *Loop) drive(t *loopTicker, interval time.Duration, fn func()) {
	anchor := l.now()
	n := int64(1)

	wait := time.NewTimer(interval)
	defer wait.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-l.done:
			return
		case <-wait.C:
		}

		ran := make(chan struct{})
		tick := func() {
			defer close(ran)
			// Stopped while queued: drop the tick.
			if t.stopped.Load() {
				return
			}
			fn()
		}

		select {
		case l.jobs <- tick:
		case <-t.stopCh:
			return
		case <-l.done:
			return
		}

		select {
		case <-ran:
		case <-l.done:
			return
		}

		n++
		next := anchor.Add(time.Duration(n) * interval)
		lag := l.now().Sub(next)
		if lag > l.maxLag {
			l.log.Warn("ticker %s behind schedule by %s, skipping missed ticks", interval, lag.Round(time.Millisecond))
			anchor = l.now()
			n = 1
			next = anchor.Add(interval)
		}

		d := next.Sub(l.now())
		if d < 0 {
			d = 0
		}
		wait.Reset(d)
	}
}

// loopTicker is the handle returned by Loop.Every.
type loopTicker struct {
	stopped atomic.Bool
	stopCh  chan struct{}
	once    sync.Once
}

// Stop cancels the ticker. Safe to call more than once and from any
// goroutine, including from inside a tick.
func (t *loopTicker) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.stopCh)
	})
}
