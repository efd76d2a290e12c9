package speech

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*SpeakingNotifier)(nil)

// SpeakingNotifier wraps a text notifier and also speaks urgent messages.
// Plain notifications are printed only, so they never cut off a cue.
type SpeakingNotifier struct {
	text    domain.Notifier
	voice   domain.Voice
	enabled func() bool
	log     *logger.Logger
}

// NewSpeakingNotifier creates a notifier that prints everything and speaks
// urgent messages while enabled reports true. enabled may be nil.
func NewSpeakingNotifier(text domain.Notifier, voice domain.Voice, enabled func() bool, log *logger.Logger) *SpeakingNotifier {
	return &SpeakingNotifier{
		text:    text,
		voice:   voice,
		enabled: enabled,
		log:     log,
	}
}

// Notify prints the message.
func (n *SpeakingNotifier) Notify(ctx context.Context, message string) error {
	return n.text.Notify(ctx, message)
}

// NotifyUrgent prints the message and speaks it.
func (n *SpeakingNotifier) NotifyUrgent(ctx context.Context, message string) error {
	if err := n.text.NotifyUrgent(ctx, message); err != nil {
		return err
	}
	if n.enabled != nil && !n.enabled() {
		return nil
	}
	if err := n.voice.Speak(cleanForSpeech(message), DefaultRate); err != nil {
		n.log.Debug("notifier: speak failed: %v", err)
	}
	return nil
}

// cleanForSpeech strips formatting artifacts that shouldn't be spoken.
var bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
var ansiCodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func cleanForSpeech(msg string) string {
	cleaned := ansiCodes.ReplaceAllString(msg, "")
	cleaned = bracketPrefix.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	return cleaned
}
