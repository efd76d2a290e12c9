package timer

import (
	"strconv"
	"time"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/feedback"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Tempo tracker defaults.
const (
	DefaultTempoTick = 50 * time.Millisecond
	DefaultVoiceRate = 1.1
)

// DefaultTempo is a 3-1-2 tempo: three seconds down, one second hold, two
// seconds up.
var DefaultTempo = domain.TempoDurations{
	Eccentric:  3 * time.Second,
	Hold:       1 * time.Second,
	Concentric: 2 * time.Second,
}

// TempoOption configures a TempoTracker.
type TempoOption func(*TempoTracker)

// WithTempo sets the initial phase durations. Invalid tempos are ignored.
func WithTempo(d domain.TempoDurations) TempoOption {
	return func(t *TempoTracker) {
		if d.Valid() {
			t.state.Durations = d
		}
	}
}

// WithTempoTick sets the tick interval. Phases overshoot by at most one tick.
func WithTempoTick(d time.Duration) TempoOption {
	return func(t *TempoTracker) {
		if d > 0 {
			t.tick = d
		}
	}
}

// WithVoiceRate sets the speaking rate passed to the voice.
func WithVoiceRate(rate float64) TempoOption {
	return func(t *TempoTracker) {
		if rate > 0 {
			t.rate = rate
		}
	}
}

// TempoTracker paces a set rep by rep through the eccentric, hold and
// concentric phases, counting a rep each time the concentric phase ends.
//
// All methods must be called on the scheduler's queue, like RestTimer.
type TempoTracker struct {
	sched    domain.Scheduler
	cues     *feedback.Cues
	log      *logger.Logger
	onFinish func(reps int)

	tick   time.Duration
	rate   float64
	state  domain.TempoState
	closed bool
	handle domain.TickHandle
}

// NewTempoTracker creates a tracker in PhaseReady. onFinish receives the rep
// count of every finished set that had at least one rep; it may be nil.
func NewTempoTracker(sched domain.Scheduler, cues *feedback.Cues, log *logger.Logger, onFinish func(reps int), opts ...TempoOption) *TempoTracker {
	t := &TempoTracker{
		sched:    sched,
		cues:     cues,
		log:      log,
		onFinish: onFinish,
		tick:     DefaultTempoTick,
		rate:     DefaultVoiceRate,
		state:    domain.TempoState{Phase: domain.PhaseReady, Durations: DefaultTempo},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Configure replaces the phase durations. Rejected while running, and
// rejected while paused if the current phase has already run for at least
// the new duration.
func (t *TempoTracker) Configure(d domain.TempoDurations) error {
	if !d.Valid() {
		return domain.ErrInvalidDuration
	}
	if t.state.Running {
		return domain.ErrTimerRunning
	}
	if t.state.Phase.Active() && t.state.Elapsed >= d.Of(t.state.Phase) {
		return domain.ErrElapsedTooLong
	}
	t.state.Durations = d
	t.log.Debug("tempo set to %s/%s/%s", d.Eccentric, d.Hold, d.Concentric)
	return nil
}

// Start begins a set from PhaseReady with the lowering cue. Returns false
// unless the tracker is ready.
func (t *TempoTracker) Start() bool {
	if t.closed || t.state.Running || t.state.Phase != domain.PhaseReady {
		return false
	}
	tr := phaseTable[domain.PhaseReady]
	t.state.Phase = tr.next
	t.state.Elapsed = 0
	t.state.Running = true
	t.announce(tr.cue)
	t.handle = t.sched.Every(t.tick, t.onTick)
	t.log.Info("set started")
	return true
}

// Pause freezes the current phase and its elapsed time.
func (t *TempoTracker) Pause() bool {
	if !t.state.Running {
		return false
	}
	t.halt()
	t.cues.Speak(WordPaused, t.rate)
	t.log.Info("set paused in %s (%s in)", t.state.Phase, t.state.Elapsed)
	return true
}

// Resume continues a paused set. It does not repeat the phase cue.
func (t *TempoTracker) Resume() bool {
	if t.closed || t.state.Running || !t.state.Phase.Active() {
		return false
	}
	t.state.Running = true
	t.handle = t.sched.Every(t.tick, t.onTick)
	t.cues.Speak(WordResume, t.rate)
	t.log.Info("set resumed in %s", t.state.Phase)
	return true
}

// Reset returns to PhaseReady with zero reps. Durations are kept. Idempotent.
func (t *TempoTracker) Reset() {
	t.halt()
	t.state.Phase = domain.PhaseReady
	t.state.Elapsed = 0
	t.state.Reps = 0
}

// FinishSet ends the set. If it had any reps, the count is announced and
// reported to the finish callback. The tracker is reset either way.
// Returns the reported count, or 0 when nothing was reported.
func (t *TempoTracker) FinishSet() int {
	reps := t.state.Reps
	t.halt()
	if reps > 0 {
		t.cues.Speak(SetCompleteLine(reps), t.rate)
		t.log.Info("set finished with %d reps", reps)
		if t.onFinish != nil {
			t.onFinish(reps)
		}
	}
	t.Reset()
	return reps
}

// State returns a copy of the current state.
func (t *TempoTracker) State() domain.TempoState {
	return t.state
}

// Close cancels any pending tick. The tracker ignores Start and Resume
// afterwards.
func (t *TempoTracker) Close() {
	t.halt()
	t.closed = true
}

func (t *TempoTracker) onTick() {
	t.state.Elapsed += t.tick
	st := nextPhase(t.state.Phase, t.state.Elapsed, t.state.Durations)
	if !st.changed {
		return
	}
	t.log.Debug("%s -> %s after %s", t.state.Phase, st.next, t.state.Elapsed)
	t.state.Phase = st.next
	t.state.Elapsed = 0
	if st.repComplete {
		t.state.Reps++
	}
	t.announce(st.cue)
}

func (t *TempoTracker) announce(c cue) {
	t.cues.PlayTone(c.tone)
	if !t.cues.VoiceEnabled() {
		return
	}
	text := c.word
	if text == "" {
		text = strconv.Itoa(t.state.Reps)
	}
	t.cues.Speak(text, t.rate)
}

func (t *TempoTracker) halt() {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
	t.state.Running = false
}
