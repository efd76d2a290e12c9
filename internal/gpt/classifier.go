package gpt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*Classifier)(nil)

// Completer is the part of Client the classifier needs.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// StateFunc describes the current workout in a line or two so the model
// can tell "pause" for a set from "pause" for a rest.
type StateFunc func(ctx context.Context) string

// Classifier runs a local parser first and asks the model only when the
// local parser returns IntentUnknown. Model failures degrade to the local
// result.
type Classifier struct {
	local domain.IntentParser
	chat  Completer
	state StateFunc
	log   *logger.Logger
}

// NewClassifier wraps local with a model fallback. state may be nil.
func NewClassifier(local domain.IntentParser, chat Completer, state StateFunc, log *logger.Logger) *Classifier {
	return &Classifier{local: local, chat: chat, state: state, log: log}
}

type classifyResponse struct {
	Intent  string `json:"intent"`
	Payload string `json:"payload"`
}

// Parse converts user input into an intent.
func (c *Classifier) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	intent, err := c.local.Parse(ctx, input)
	if err != nil {
		return nil, err
	}
	if intent.Type != domain.IntentUnknown || intent.Payload == "" {
		return intent, nil
	}

	raw, err := c.chat.Complete(ctx, c.buildMessages(ctx, intent.Payload))
	if err != nil {
		c.log.Warn("gpt: classify failed: %v", err)
		return intent, nil
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		c.log.Error("gpt: failed to parse classify JSON: %v\nraw: %s", err, truncate(raw, 200))
		return intent, nil
	}

	t := domain.IntentFromString(resp.Intent)
	c.log.Debug("gpt: classified %q -> %s (payload=%q)", intent.Payload, t, resp.Payload)
	if t == domain.IntentUnknown {
		return intent, nil
	}
	return &domain.Intent{Type: t, Payload: strings.TrimSpace(resp.Payload)}, nil
}

// buildMessages assembles the system prompt, an optional state block and
// the input itself.
func (c *Classifier) buildMessages(ctx context.Context, input string) []Message {
	msgs := []Message{{Role: RoleSystem, Content: PromptClassify}}

	if c.state != nil {
		if s := c.state(ctx); s != "" {
			msgs = append(msgs,
				Message{Role: RoleUser, Content: "Current state:\n" + s},
				// Fake an ack so the model treats the state as established.
				Message{Role: RoleAssistant, Content: "Got it."},
			)
		}
	}

	return append(msgs, Message{Role: RoleUser, Content: input})
}

// stripCodeFence removes ```json ... ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
