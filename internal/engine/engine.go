// Package engine hosts a workout session: one rest timer, one tempo tracker,
// their shared feedback and the log of finished sets.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/feedback"
	"github.com/hammamikhairi/ottolift/internal/logger"
	"github.com/hammamikhairi/ottolift/internal/timer"
)

// Option configures the engine.
type Option func(*Engine)

// WithExercise sets the exercise name attached to finished sets.
func WithExercise(name string) Option {
	return func(e *Engine) {
		e.exercise = strings.TrimSpace(name)
	}
}

// WithAutoRest starts the rest timer whenever a set with reps is finished.
func WithAutoRest(enabled bool) Option {
	return func(e *Engine) {
		e.autoRest = enabled
	}
}

// WithRestOptions passes options through to the rest timer.
func WithRestOptions(opts ...timer.RestOption) Option {
	return func(e *Engine) {
		e.restOpts = append(e.restOpts, opts...)
	}
}

// WithTempoOptions passes options through to the tempo tracker.
func WithTempoOptions(opts ...timer.TempoOption) Option {
	return func(e *Engine) {
		e.tempoOpts = append(e.tempoOpts, opts...)
	}
}

// WithNow overrides the wall clock used to stamp finished sets.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine serializes every operation on the scheduler's queue, so operations
// never interleave with ticks. Completion callbacks from the timers already
// run on that queue and touch the engine directly.
type Engine struct {
	sched    domain.Scheduler
	cues     *feedback.Cues
	sets     domain.SetLog
	notifier domain.Notifier
	log      *logger.Logger

	rest  *timer.RestTimer
	tempo *timer.TempoTracker

	restOpts  []timer.RestOption
	tempoOpts []timer.TempoOption
	now       func() time.Time

	// Owned by the scheduler queue.
	exercise string
	autoRest bool
	finished int
}

// New creates an engine and its two timers.
func New(sched domain.Scheduler, cues *feedback.Cues, sets domain.SetLog, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		sched:    sched,
		cues:     cues,
		sets:     sets,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.rest = timer.NewRestTimer(sched, cues, log.With("rest"), e.onRestComplete, e.restOpts...)
	e.tempo = timer.NewTempoTracker(sched, cues, log.With("tempo"), e.onSetFinished, e.tempoOpts...)
	return e
}

// ── Set control ──────────────────────────────────────────────────

// StartSet begins a set from the ready state. A running or paused rest is
// reset so it cannot be resumed mid-set.
func (e *Engine) StartSet(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "start set", func() {
		ok = e.tempo.Start()
		if ok {
			e.rest.Reset()
		}
	})
	return ok, err
}

// PauseSet freezes the set in its current phase.
func (e *Engine) PauseSet(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "pause set", func() { ok = e.tempo.Pause() })
	return ok, err
}

// ResumeSet continues a paused set.
func (e *Engine) ResumeSet(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "resume set", func() { ok = e.tempo.Resume() })
	return ok, err
}

// ResetSet abandons the set without logging it.
func (e *Engine) ResetSet(ctx context.Context) error {
	return e.do(ctx, "reset set", e.tempo.Reset)
}

// FinishSet ends the set and returns the number of reps logged, 0 if the
// set had none.
func (e *Engine) FinishSet(ctx context.Context) (int, error) {
	var reps int
	err := e.do(ctx, "finish set", func() { reps = e.tempo.FinishSet() })
	return reps, err
}

// SetTempo changes the phase durations.
func (e *Engine) SetTempo(ctx context.Context, d domain.TempoDurations) error {
	var cerr error
	if err := e.do(ctx, "set tempo", func() { cerr = e.tempo.Configure(d) }); err != nil {
		return err
	}
	if cerr != nil {
		return fmt.Errorf("set tempo: %w", cerr)
	}
	return nil
}

// ── Rest control ─────────────────────────────────────────────────

// StartRest begins a fresh rest countdown.
func (e *Engine) StartRest(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "start rest", func() { ok = e.rest.Start() })
	return ok, err
}

// PauseRest freezes the rest countdown.
func (e *Engine) PauseRest(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "pause rest", func() { ok = e.rest.Pause() })
	return ok, err
}

// ResumeRest continues a paused rest countdown.
func (e *Engine) ResumeRest(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, "resume rest", func() { ok = e.rest.Resume() })
	return ok, err
}

// ResetRest stops the rest countdown and restores the full duration.
func (e *Engine) ResetRest(ctx context.Context) error {
	return e.do(ctx, "reset rest", e.rest.Reset)
}

// SetRest changes the rest duration.
func (e *Engine) SetRest(ctx context.Context, d time.Duration) error {
	var cerr error
	if err := e.do(ctx, "set rest", func() { cerr = e.rest.Configure(d) }); err != nil {
		return err
	}
	if cerr != nil {
		return fmt.Errorf("set rest: %w", cerr)
	}
	return nil
}

// ── Session settings ─────────────────────────────────────────────

// SetExercise names the exercise for the sets that follow.
func (e *Engine) SetExercise(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return e.do(ctx, "set exercise", func() {
		e.exercise = name
		e.log.Info("exercise set to %q", name)
	})
}

// SetToneEnabled flips the tone toggle. Takes effect on the next cue.
func (e *Engine) SetToneEnabled(on bool) { e.cues.SetToneEnabled(on) }

// SetVoiceEnabled flips the voice toggle. Takes effect on the next cue.
func (e *Engine) SetVoiceEnabled(on bool) { e.cues.SetVoiceEnabled(on) }

// VoiceEnabled reports the voice toggle.
func (e *Engine) VoiceEnabled() bool { return e.cues.VoiceEnabled() }

// ── Queries ──────────────────────────────────────────────────────

// Snapshot returns a consistent view of both timers.
func (e *Engine) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var s domain.Snapshot
	err := e.do(ctx, "snapshot", func() {
		s = domain.Snapshot{
			Exercise: e.exercise,
			Rest:     e.rest.State(),
			Tempo:    e.tempo.State(),
			Feedback: e.cues.Config(),
			Sets:     e.finished,
		}
	})
	return s, err
}

// History returns up to limit finished sets, newest first. An empty
// exercise lists every exercise.
func (e *Engine) History(ctx context.Context, exercise string, limit int) ([]*domain.SetRecord, error) {
	recs, err := e.sets.List(ctx, exercise, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return recs, nil
}

// Close cancels both timers' pending ticks. The engine ignores start and
// resume requests afterwards.
func (e *Engine) Close(ctx context.Context) error {
	return e.do(ctx, "close", func() {
		e.tempo.Close()
		e.rest.Close()
		e.log.Info("engine closed after %d sets", e.finished)
	})
}

// ── Callbacks (run on the scheduler queue) ───────────────────────

func (e *Engine) onSetFinished(reps int) {
	rec := &domain.SetRecord{
		ID:         uuid.NewString(),
		Exercise:   e.exercise,
		Reps:       reps,
		Tempo:      e.tempo.State().Durations,
		FinishedAt: e.now(),
	}
	e.finished++

	ctx := context.Background()
	if err := e.sets.Append(ctx, rec); err != nil {
		e.log.Error("logging set %s: %v", rec.ID, err)
	}

	msg := fmt.Sprintf("Set %d: %d reps", e.finished, reps)
	if rec.Exercise != "" {
		msg = fmt.Sprintf("Set %d: %d reps of %s", e.finished, reps, rec.Exercise)
	}
	if err := e.notifier.Notify(ctx, msg); err != nil {
		e.log.Debug("notify: %v", err)
	}

	if e.autoRest {
		e.rest.Reset()
		e.rest.Start()
	}
}

func (e *Engine) onRestComplete() {
	if err := e.notifier.NotifyUrgent(context.Background(), "Rest over. Next set."); err != nil {
		e.log.Debug("notify: %v", err)
	}
}

func (e *Engine) do(ctx context.Context, op string, fn func()) error {
	if err := e.sched.Do(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
