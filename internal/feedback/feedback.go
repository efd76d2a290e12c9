// Package feedback is the audible side of the timing engines: short tones
// and spoken announcements, each behind its own on/off toggle. Every call
// is fire-and-forget and reports what happened as a Status instead of an
// error, so a missing speaker or speech engine never stops a timer.
package feedback

import (
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Status is the outcome of a single cue.
type Status int

const (
	// Played means the capability accepted the cue.
	Played Status = iota
	// Muted means the matching toggle is off.
	Muted
	// Unavailable means the host has no such capability.
	Unavailable
	// Failed means the capability returned an error. The error is logged.
	Failed
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case Played:
		return "played"
	case Muted:
		return "muted"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tone describes one beep.
type Tone struct {
	Freq     float64 // Hz
	Duration time.Duration
	Volume   float64 // 0..1
}

// Tone presets. Each tempo phase has its own pitch so the user can follow
// the cycle without looking.
var (
	ToneLower        = Tone{Freq: 440, Duration: 120 * time.Millisecond, Volume: 0.35}
	ToneHold         = Tone{Freq: 587, Duration: 120 * time.Millisecond, Volume: 0.35}
	ToneLift         = Tone{Freq: 784, Duration: 120 * time.Millisecond, Volume: 0.35}
	ToneRepComplete  = Tone{Freq: 988, Duration: 180 * time.Millisecond, Volume: 0.45}
	ToneRestComplete = Tone{Freq: 880, Duration: 600 * time.Millisecond, Volume: 0.5}
)

// Option configures Cues.
type Option func(*Cues)

// WithTone enables or disables tone cues at construction.
func WithTone(enabled bool) Option {
	return func(c *Cues) {
		c.toneOn.Store(enabled)
	}
}

// WithVoice enables or disables spoken cues at construction.
func WithVoice(enabled bool) Option {
	return func(c *Cues) {
		c.voiceOn.Store(enabled)
	}
}

// Cues routes tone and voice cues to the host's capabilities. A nil
// capability means the host does not have it. Toggles may be flipped from
// any goroutine at any time.
type Cues struct {
	tone  domain.ToneOutput
	voice domain.Voice
	log   *logger.Logger

	toneOn  atomic.Bool
	voiceOn atomic.Bool
}

// New creates a cue router. Both toggles default to on.
func New(tone domain.ToneOutput, voice domain.Voice, log *logger.Logger, opts ...Option) *Cues {
	c := &Cues{
		tone:  tone,
		voice: voice,
		log:   log,
	}
	c.toneOn.Store(true)
	c.voiceOn.Store(true)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlayTone plays a tone if tones are enabled and available.
func (c *Cues) PlayTone(t Tone) Status {
	if !c.toneOn.Load() {
		return Muted
	}
	if c.tone == nil {
		return Unavailable
	}
	if err := c.tone.PlayTone(t.Freq, t.Duration, t.Volume); err != nil {
		c.log.Debug("tone %.0fHz failed: %v", t.Freq, err)
		return Failed
	}
	return Played
}

// Speak announces text if voice is enabled and available. Any utterance
// still playing is cut off by the voice itself.
func (c *Cues) Speak(text string, rate float64) Status {
	if !c.voiceOn.Load() {
		return Muted
	}
	if c.voice == nil {
		return Unavailable
	}
	if err := c.voice.Speak(text, rate); err != nil {
		c.log.Debug("speak %q failed: %v", text, err)
		return Failed
	}
	return Played
}

// SetToneEnabled flips the tone toggle.
func (c *Cues) SetToneEnabled(on bool) { c.toneOn.Store(on) }

// SetVoiceEnabled flips the voice toggle.
func (c *Cues) SetVoiceEnabled(on bool) { c.voiceOn.Store(on) }

// VoiceEnabled reports the voice toggle. Engines use it to skip building
// announcement text nobody will hear.
func (c *Cues) VoiceEnabled() bool { return c.voiceOn.Load() }

// Config returns the current toggles.
func (c *Cues) Config() domain.FeedbackConfig {
	return domain.FeedbackConfig{
		Tone:  c.toneOn.Load(),
		Voice: c.voiceOn.Load(),
	}
}
