package domain

import (
	"context"
	"time"
)

// TickHandle cancels a repeating callback. Stop is idempotent, and a tick
// that was queued but has not run yet when Stop is called never runs.
type TickHandle interface {
	Stop()
}

// Scheduler drives the timing engines. Ticks and operations passed to Do
// run one at a time on the same queue, so an engine never observes a tick
// in the middle of an operation.
type Scheduler interface {
	// Every invokes fn once per interval until the handle is stopped.
	Every(interval time.Duration, fn func()) TickHandle
	// Do runs fn on the scheduler's queue and waits for it to finish.
	// It must not be called from inside a tick or another Do.
	Do(ctx context.Context, fn func()) error
}

// ToneOutput synthesizes a short beep. Implementations must not block
// for the length of the tone.
type ToneOutput interface {
	PlayTone(freq float64, d time.Duration, volume float64) error
}

// Voice speaks short announcements. Starting a new utterance cancels any
// utterance still in flight, so only the latest one is heard.
type Voice interface {
	Speak(text string, rate float64) error
}

// SetLog records finished sets. Implementations can be in-memory or SQLite.
type SetLog interface {
	Append(ctx context.Context, rec *SetRecord) error
	// List returns the newest records first. An empty exercise matches all.
	List(ctx context.Context, exercise string, limit int) ([]*SetRecord, error)
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout or to the terminal UI.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
