// Package speech holds the voice pipeline. The strings in this file are the
// conversational replies; tempo and rest cues live with the timers.
// Keep lines short and direct; the TTS engine handles inflection.
package speech

import (
	"fmt"
	"math/rand"
	"time"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Ready when you are. Say start to begin a set."
}

func LineBye() string {
	return "Good session. Bye."
}

func LineUnknown(input string) string {
	return fmt.Sprintf("Didn't catch that: %s.", input)
}

// ── Set control ──────────────────────────────────────────────────

func LineAlreadyRunning() string {
	return "The set is already running."
}

func LineNoSet() string {
	return "No set in progress."
}

func LineSetReset() string {
	return "Set reset."
}

func LineEmptySet() string {
	return "No reps counted. Nothing logged."
}

// ── Rest ─────────────────────────────────────────────────────────

func LineRestStarted(d time.Duration) string {
	return fmt.Sprintf("Resting %s.", FormatDurationSpeech(d))
}

func LineRestOver() string {
	return "Rest over. Next set."
}

func LineNoRest() string {
	return "No rest running."
}

func LineRestRunning() string {
	return "Rest is already running."
}

func LineRestSet(d time.Duration) string {
	return fmt.Sprintf("Rest set to %s.", FormatDurationSpeech(d))
}

// ── Settings ─────────────────────────────────────────────────────

func LineTempoSet(e, h, c time.Duration) string {
	return fmt.Sprintf("Tempo %s down, %s hold, %s up.",
		FormatDurationSpeech(e), FormatDurationSpeech(h), FormatDurationSpeech(c))
}

func LineExercise(name string) string {
	return fmt.Sprintf("Exercise set to %s.", name)
}

func LineStopFirst() string {
	return "Pause or finish first, then change it."
}

// LineTooFarIn is the reply when a paused set is already further into its
// phase than the new tempo allows.
func LineTooFarIn() string {
	return "You're already past that in this phase. Reset or finish the set first."
}

func LineToggle(name string, on bool) string {
	if on {
		return fmt.Sprintf("%s on.", name)
	}
	return fmt.Sprintf("%s off.", name)
}

// ── Listening acknowledgment ─────────────────────────────────────
// Spoken when the wake word is detected, so the user knows they've
// been heard and should start talking.

var listeningFillers = []string{
	"Listening.",
	"Yes coach?",
	"Go ahead.",
	"I'm here.",
	"Yes?",
}

// LineListening returns a random acknowledgment for when the wake
// word is detected.
func LineListening() string {
	return listeningFillers[rand.Intn(len(listeningFillers))]
}

// ListeningFillers returns all listening acknowledgment strings so
// they can be prefetched into the TTS cache at startup.
func ListeningFillers() []string {
	out := make([]string, len(listeningFillers))
	copy(out, listeningFillers)
	return out
}

// FormatDurationSpeech returns a human-friendly spoken duration. Whole
// seconds only, except below ten seconds where halves are kept.
func FormatDurationSpeech(d time.Duration) string {
	if d < 10*time.Second && d%time.Second != 0 {
		return fmt.Sprintf("%.1f seconds", d.Seconds())
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	switch {
	case m == 0 && s == 1:
		return "1 second"
	case m == 0:
		return fmt.Sprintf("%d seconds", s)
	case s == 0 && m == 1:
		return "1 minute"
	case s == 0:
		return fmt.Sprintf("%d minutes", m)
	case m == 1:
		return fmt.Sprintf("1 minute %d seconds", s)
	default:
		return fmt.Sprintf("%d minutes %d seconds", m, s)
	}
}
