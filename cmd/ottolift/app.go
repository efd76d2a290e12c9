package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hammamikhairi/ottolift/internal/display"
	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/engine"
	"github.com/hammamikhairi/ottolift/internal/logger"
	"github.com/hammamikhairi/ottolift/internal/speech"
)

// historyLimit caps how many sets the history command lists.
const historyLimit = 10

type cliApp struct {
	engine *engine.Engine
	parser domain.IntentParser
	mouth  *speech.Mouth // nil when TTS is disabled
	ear    *speech.Ear   // nil when voice input is disabled
	log    *logger.Logger
	ui     *display.UI
}

// say prints a coach line and speaks it when the voice toggle is on.
// Tables and help text go through the ui directly and are never spoken.
func (a *cliApp) say(text string) {
	a.ui.PrintChat(text)
	if a.mouth != nil && a.engine.VoiceEnabled() {
		if err := a.mouth.Speak(text, speech.DefaultRate); err != nil {
			a.log.Debug("say: %v", err)
		}
	}
}

func (a *cliApp) run(ctx context.Context) {
	a.say(speech.LineWelcome())

	// Receiving on a nil channel blocks forever, so without an ear only the
	// keyboard case fires.
	var voiceCh <-chan speech.Heard
	if a.ear != nil {
		voiceCh = a.ear.C()
	}
	uiCh := a.ui.InputChan()

	for {
		var intent *domain.Intent

		select {
		case <-ctx.Done():
			return
		case input, ok := <-uiCh:
			if !ok {
				return
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			var err error
			if intent, err = a.parser.Parse(ctx, input); err != nil {
				a.log.Error("parsing input: %v", err)
				continue
			}
		case heard := <-voiceCh:
			a.ui.PrintVoice(heard.Text)
			intent = heard.Intent
		}

		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)
		if quit := a.handleIntent(ctx, intent); quit {
			return
		}
	}
}

// handleIntent dispatches one intent and reports whether the app should exit.
func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentStartSet:
		a.startSet(ctx)
	case domain.IntentPauseSet:
		a.toggleSet(ctx, a.engine.PauseSet)
	case domain.IntentResumeSet:
		a.toggleSet(ctx, a.engine.ResumeSet)
	case domain.IntentResetSet:
		if a.check(a.engine.ResetSet(ctx)) {
			a.say(speech.LineSetReset())
		}
	case domain.IntentFinishSet:
		a.finishSet(ctx)

	case domain.IntentStartRest:
		a.startRest(ctx)
	case domain.IntentPauseRest:
		a.toggleRest(ctx, a.engine.PauseRest, "Rest paused.")
	case domain.IntentResumeRest:
		a.toggleRest(ctx, a.engine.ResumeRest, "Rest resumed.")
	case domain.IntentResetRest:
		if a.check(a.engine.ResetRest(ctx)) {
			a.ui.PrintHint("Rest reset.")
		}
	case domain.IntentSetRest:
		a.setRest(ctx, intent.Payload)

	case domain.IntentSetTempo:
		a.setTempo(ctx, intent.Payload)
	case domain.IntentSetExercise:
		if a.check(a.engine.SetExercise(ctx, intent.Payload)) {
			a.say(speech.LineExercise(intent.Payload))
		}

	case domain.IntentToneOn, domain.IntentToneOff:
		on := intent.Type == domain.IntentToneOn
		a.engine.SetToneEnabled(on)
		a.ui.PrintHint(speech.LineToggle("Tones", on))
	case domain.IntentVoiceOn, domain.IntentVoiceOff:
		on := intent.Type == domain.IntentVoiceOn
		a.engine.SetVoiceEnabled(on)
		if !on && a.mouth != nil {
			a.mouth.Interrupt()
		}
		a.say(speech.LineToggle("Voice", on))

	case domain.IntentStatus:
		a.status(ctx)
	case domain.IntentHistory:
		a.history(ctx, intent.Payload)
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentQuit:
		a.quit(ctx)
		return true
	default:
		a.say(speech.LineUnknown(intent.Payload))
	}
	return false
}

// check prints an engine error and reports whether err was nil.
func (a *cliApp) check(err error) bool {
	if err == nil {
		return true
	}
	a.log.Error("%v", err)
	a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
	return false
}

// ── Set handlers ─────────────────────────────────────────────────

func (a *cliApp) startSet(ctx context.Context) {
	ok, err := a.engine.StartSet(ctx)
	if !a.check(err) {
		return
	}
	if !ok {
		a.say(speech.LineAlreadyRunning())
	}
}

func (a *cliApp) toggleSet(ctx context.Context, op func(context.Context) (bool, error)) {
	ok, err := op(ctx)
	if !a.check(err) {
		return
	}
	if !ok {
		a.say(speech.LineNoSet())
	}
}

func (a *cliApp) finishSet(ctx context.Context) {
	reps, err := a.engine.FinishSet(ctx)
	if !a.check(err) {
		return
	}
	if reps == 0 {
		a.say(speech.LineEmptySet())
	}
}

// ── Rest handlers ────────────────────────────────────────────────

func (a *cliApp) startRest(ctx context.Context) {
	ok, err := a.engine.StartRest(ctx)
	if !a.check(err) {
		return
	}
	if !ok {
		a.say(speech.LineRestRunning())
		return
	}
	snap, err := a.engine.Snapshot(ctx)
	if a.check(err) {
		a.ui.PrintHint(speech.LineRestStarted(snap.Rest.Remaining))
	}
}

func (a *cliApp) toggleRest(ctx context.Context, op func(context.Context) (bool, error), done string) {
	ok, err := op(ctx)
	if !a.check(err) {
		return
	}
	if !ok {
		a.say(speech.LineNoRest())
		return
	}
	a.ui.PrintHint(done)
}

func (a *cliApp) setRest(ctx context.Context, payload string) {
	secs, err := strconv.ParseFloat(payload, 64)
	d := domain.SecondsToDuration(secs)
	if err != nil || d <= 0 {
		a.say(speech.LineUnknown(payload))
		return
	}
	switch err := a.engine.SetRest(ctx, d); {
	case errors.Is(err, domain.ErrTimerRunning):
		a.say(speech.LineStopFirst())
	case a.check(err):
		a.say(speech.LineRestSet(d))
	}
}

func (a *cliApp) setTempo(ctx context.Context, payload string) {
	d, err := domain.ParseTempo(payload)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	switch err := a.engine.SetTempo(ctx, d); {
	case errors.Is(err, domain.ErrTimerRunning):
		a.say(speech.LineStopFirst())
	case errors.Is(err, domain.ErrElapsedTooLong):
		a.say(speech.LineTooFarIn())
	case a.check(err):
		a.say(speech.LineTempoSet(d.Eccentric, d.Hold, d.Concentric))
	}
}

// ── Queries ──────────────────────────────────────────────────────

func (a *cliApp) status(ctx context.Context) {
	snap, err := a.engine.Snapshot(ctx)
	if !a.check(err) {
		return
	}

	t := snap.Tempo
	switch {
	case t.Running:
		a.ui.PrintInstruction(fmt.Sprintf("Set: %s, %s left, %d reps", t.Phase, fmtClock(t.Remaining()), t.Reps))
	case t.Paused():
		a.ui.PrintInstruction(fmt.Sprintf("Set: paused in %s, %s left, %d reps", t.Phase, fmtClock(t.Remaining()), t.Reps))
	default:
		a.ui.PrintInstruction("Set: ready")
	}
	a.ui.PrintHint("Tempo " + t.Durations.String())

	r := snap.Rest
	switch {
	case r.Running:
		a.ui.PrintInstruction("Rest: " + fmtClock(r.Remaining) + " left")
	case r.Remaining < r.Duration:
		a.ui.PrintInstruction("Rest: paused, " + fmtClock(r.Remaining) + " left")
	default:
		a.ui.PrintInstruction("Rest: " + fmtClock(r.Duration) + " idle")
	}

	exercise := snap.Exercise
	if exercise == "" {
		exercise = "(none)"
	}
	a.ui.PrintHint(fmt.Sprintf("Exercise %s, %d sets this session, tone %s, voice %s",
		exercise, snap.Sets, onOff(snap.Feedback.Tone), onOff(snap.Feedback.Voice)))
}

func (a *cliApp) history(ctx context.Context, exercise string) {
	recs, err := a.engine.History(ctx, exercise, historyLimit)
	if !a.check(err) {
		return
	}
	if len(recs) == 0 {
		a.ui.PrintHint("No sets logged yet.")
		return
	}
	for _, r := range recs {
		name := r.Exercise
		if name == "" {
			name = "-"
		}
		a.ui.PrintInstruction(fmt.Sprintf("%s  %-16s %3d reps  tempo %s",
			r.FinishedAt.Local().Format("Jan 02 15:04"), name, r.Reps, r.Tempo))
	}
}

func (a *cliApp) showHelp() {
	a.ui.PrintChat("Commands:")
	for _, l := range []string{
		"start | pause | resume | reset | done     control the set",
		"rest | pause rest | resume rest | skip rest",
		"rest <seconds>                           set the rest length",
		"tempo <down> <hold> <up>                 e.g. tempo 3-1-2",
		"exercise <name>                          name the lift",
		"tone on|off, voice on|off                toggle cues",
		"status, history [exercise], quit",
	} {
		a.ui.PrintHint(l)
	}
}

func (a *cliApp) quit(ctx context.Context) {
	if err := a.engine.Close(ctx); err != nil {
		a.log.Warn("closing engine: %v", err)
	}
	a.say(speech.LineBye())
	a.waitForMouth(3 * time.Second)
}

// waitForMouth gives the goodbye line a chance to finish.
func (a *cliApp) waitForMouth(max time.Duration) {
	if a.mouth == nil {
		return
	}
	deadline := time.Now().Add(max)
	for a.mouth.IsSpeaking() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
}

// describe summarises a snapshot in plain words for the AI fallback.
func describe(s domain.Snapshot) string {
	var parts []string
	t := s.Tempo
	switch {
	case t.Running:
		parts = append(parts, fmt.Sprintf("set running in %s phase, %d reps so far", t.Phase, t.Reps))
	case t.Paused():
		parts = append(parts, fmt.Sprintf("set paused in %s phase, %d reps so far", t.Phase, t.Reps))
	default:
		parts = append(parts, "no set in progress")
	}
	switch {
	case s.Rest.Running:
		parts = append(parts, "rest running, "+fmtClock(s.Rest.Remaining)+" left")
	case s.Rest.Remaining < s.Rest.Duration:
		parts = append(parts, "rest paused, "+fmtClock(s.Rest.Remaining)+" left")
	default:
		parts = append(parts, "rest idle")
	}
	if s.Exercise != "" {
		parts = append(parts, "exercise "+s.Exercise)
	}
	parts = append(parts, "tempo "+t.Durations.String())
	return strings.Join(parts, "; ")
}

func fmtClock(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
