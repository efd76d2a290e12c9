package timer

import (
	"time"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/feedback"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Rest timer defaults.
const (
	DefaultRestDuration = 90 * time.Second
	DefaultRestTick     = time.Second
)

// RestOption configures a RestTimer.
type RestOption func(*RestTimer)

// WithRestDuration sets the countdown length. Non-positive values are ignored.
func WithRestDuration(d time.Duration) RestOption {
	return func(r *RestTimer) {
		if d > 0 {
			r.state.Duration = d
		}
	}
}

// WithRestTick sets the countdown granularity.
func WithRestTick(d time.Duration) RestOption {
	return func(r *RestTimer) {
		if d > 0 {
			r.tick = d
		}
	}
}

// RestTimer counts down a rest period between sets. When it reaches zero it
// plays one tone, calls the completion callback once and rearms itself at
// the full duration.
//
// All methods must be called on the scheduler's queue: from a tick, from
// Scheduler.Do, or from the goroutine driving a ManualClock.
type RestTimer struct {
	sched      domain.Scheduler
	cues       *feedback.Cues
	log        *logger.Logger
	onComplete func()

	tick   time.Duration
	state  domain.RestState
	armed  bool // a countdown was started and has not finished or been reset
	closed bool
	handle domain.TickHandle
}

// NewRestTimer creates an idle rest timer. onComplete may be nil.
func NewRestTimer(sched domain.Scheduler, cues *feedback.Cues, log *logger.Logger, onComplete func(), opts ...RestOption) *RestTimer {
	r := &RestTimer{
		sched:      sched,
		cues:       cues,
		log:        log,
		onComplete: onComplete,
		tick:       DefaultRestTick,
		state:      domain.RestState{Duration: DefaultRestDuration},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Remaining = r.state.Duration
	return r
}

// Configure changes the countdown length. Rejected while running.
func (r *RestTimer) Configure(d time.Duration) error {
	if d <= 0 || d > domain.MaxDuration {
		return domain.ErrInvalidDuration
	}
	if r.state.Running {
		return domain.ErrTimerRunning
	}
	r.state.Duration = d
	r.state.Remaining = d
	r.armed = false
	r.log.Debug("rest duration set to %s", d)
	return nil
}

// Start begins a fresh countdown from the full duration. No-op while
// running. Returns whether the timer started.
func (r *RestTimer) Start() bool {
	if r.closed || r.state.Running {
		return false
	}
	r.state.Remaining = r.state.Duration
	r.state.Running = true
	r.armed = true
	r.handle = r.sched.Every(r.tick, r.onTick)
	r.log.Info("rest started (%s)", r.state.Duration)
	return true
}

// Pause stops the countdown and keeps the remaining time.
func (r *RestTimer) Pause() bool {
	if !r.state.Running {
		return false
	}
	r.stopTicking()
	r.state.Running = false
	r.log.Info("rest paused (%s left)", r.state.Remaining)
	return true
}

// Resume continues a paused countdown from where it stopped.
func (r *RestTimer) Resume() bool {
	if r.closed || r.state.Running || !r.armed {
		return false
	}
	r.state.Running = true
	r.handle = r.sched.Every(r.tick, r.onTick)
	r.log.Info("rest resumed (%s left)", r.state.Remaining)
	return true
}

// Reset stops the countdown and restores the full duration. Idempotent.
func (r *RestTimer) Reset() {
	r.stopTicking()
	r.state.Running = false
	r.state.Remaining = r.state.Duration
	r.armed = false
}

// State returns a copy of the current state.
func (r *RestTimer) State() domain.RestState {
	return r.state
}

// Close cancels any pending tick. The timer ignores Start and Resume
// afterwards.
func (r *RestTimer) Close() {
	r.stopTicking()
	r.state.Running = false
	r.closed = true
}

func (r *RestTimer) onTick() {
	r.state.Remaining -= r.tick
	if r.state.Remaining > 0 {
		return
	}

	r.stopTicking()
	r.state.Running = false
	r.state.Remaining = 0
	r.armed = false
	r.log.Info("rest complete")

	r.cues.PlayTone(feedback.ToneRestComplete)
	if r.onComplete != nil {
		r.onComplete()
	}

	// The callback may have restarted the timer.
	if !r.state.Running {
		r.state.Remaining = r.state.Duration
	}
}

func (r *RestTimer) stopTicking() {
	if r.handle != nil {
		r.handle.Stop()
		r.handle = nil
	}
}
