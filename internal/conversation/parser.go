// Package conversation provides intent parsing and user notification implementations.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches typed or transcribed input to intents using
// keywords and simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

// patternRule maps a regex to an intent. When the regex has a capture group,
// its first group becomes the payload.
type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		// Rest commands come first so "pause rest" never reads as "pause".
		{regexp.MustCompile(`(?i)^(?:rest|timer)\s+(?:for\s+)?(\d+(?:\.\d+)?)\s*(?:s|sec|secs|seconds?)?$`), domain.IntentSetRest},
		{regexp.MustCompile(`(?i)^(?:set\s+)?rest\s+(?:to\s+)?(\d+(?:\.\d+)?)\s*(?:s|sec|secs|seconds?)?$`), domain.IntentSetRest},
		{regexp.MustCompile(`(?i)^(?:pause|hold)\s+(?:the\s+)?(?:rest|timer)$`), domain.IntentPauseRest},
		{regexp.MustCompile(`(?i)^(?:resume|continue|unpause)\s+(?:the\s+)?(?:rest|timer)$`), domain.IntentResumeRest},
		{regexp.MustCompile(`(?i)^(?:reset|stop|cancel|skip)\s+(?:the\s+)?(?:rest|timer)$`), domain.IntentResetRest},
		{regexp.MustCompile(`(?i)^(?:rest|start\s+(?:the\s+)?(?:rest|timer)|timer|r)$`), domain.IntentStartRest},

		{regexp.MustCompile(`(?i)^tempo\s+(\d+(?:\.\d+)?(?:[\s/,-]+\d+(?:\.\d+)?){2})$`), domain.IntentSetTempo},
		{regexp.MustCompile(`(?i)^(?:exercise|doing|lift)\s+(.+)$`), domain.IntentSetExercise},

		{regexp.MustCompile(`(?i)^(?:tone|tones|beeps?)\s+on$`), domain.IntentToneOn},
		{regexp.MustCompile(`(?i)^(?:tone|tones|beeps?)\s+off$`), domain.IntentToneOff},
		{regexp.MustCompile(`(?i)^(?:voice|speech)\s+on$`), domain.IntentVoiceOn},
		{regexp.MustCompile(`(?i)^(?:voice|speech)\s+off$|^(?:mute|quiet|shush)$`), domain.IntentVoiceOff},

		{regexp.MustCompile(`(?i)^(?:start|go|begin|s|start\s+(?:the\s+)?set|let'?s\s+go)$`), domain.IntentStartSet},
		{regexp.MustCompile(`(?i)^(?:pause|wait|p|pause\s+(?:the\s+)?set)$`), domain.IntentPauseSet},
		{regexp.MustCompile(`(?i)^(?:resume|continue|unpause|back|resume\s+(?:the\s+)?set)$`), domain.IntentResumeSet},
		{regexp.MustCompile(`(?i)^(?:reset|restart|redo|reset\s+(?:the\s+)?set)$`), domain.IntentResetSet},
		{regexp.MustCompile(`(?i)^(?:done|finish|finished|f|rack\s+it|finish\s+(?:the\s+)?set|set\s+done)$`), domain.IntentFinishSet},

		{regexp.MustCompile(`(?i)^(?:status|where|info|how\s+many)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(?:history|log|sets)(?:\s+(.+))?$`), domain.IntentHistory},
		{regexp.MustCompile(`(?i)^(?:help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(?:quit|exit|q|bye)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts user input into an intent. Unmatched input yields
// IntentUnknown with the cleaned input as payload.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	cleaned := clean(input)
	if cleaned == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", cleaned)

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)
		intent := &domain.Intent{Type: rule.intent}
		if len(m) > 1 {
			intent.Payload = strings.TrimSpace(m[1])
		}
		return intent, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: cleaned}, nil
}

// clean trims whitespace and the trailing punctuation transcription tends
// to add ("Start set." or "Pause!"), and collapses inner runs of spaces.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if s != "?" {
		s = strings.TrimRight(s, ".!?, ")
	}
	return strings.Join(strings.Fields(s), " ")
}
