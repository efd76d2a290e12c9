package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hammamikhairi/ottolift/internal/conversation"
	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// fakeChat returns a canned reply and records the last request.
type fakeChat struct {
	reply string
	err   error
	calls int
	last  []Message
}

func (f *fakeChat) Complete(_ context.Context, msgs []Message) (string, error) {
	f.calls++
	f.last = msgs
	return f.reply, f.err
}

func newClassifier(chat Completer, state StateFunc) *Classifier {
	log := logger.New(logger.LevelOff, nil)
	return NewClassifier(conversation.NewKeywordParser(log), chat, state, log)
}

func TestClassifierKeywordFirst(t *testing.T) {
	chat := &fakeChat{reply: `{"intent":"quit"}`}
	c := newClassifier(chat, nil)

	intent, err := c.Parse(context.Background(), "start")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Type != domain.IntentStartSet {
		t.Fatalf("expected start_set, got %s", intent.Type)
	}
	if chat.calls != 0 {
		t.Fatalf("expected no model call for a keyword match, got %d", chat.calls)
	}

	if _, err := c.Parse(context.Background(), "   "); err != nil || chat.calls != 0 {
		t.Fatalf("expected blank input to skip the model, calls=%d err=%v", chat.calls, err)
	}
}

func TestClassifierFallback(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		err         error
		wantType    domain.IntentType
		wantPayload string
	}{
		{"plain json", `{"intent":"finish_set"}`, nil, domain.IntentFinishSet, ""},
		{"fenced json", "```json\n{\"intent\":\"set_rest\",\"payload\":\"120\"}\n```", nil, domain.IntentSetRest, "120"},
		{"model says unknown", `{"intent":"unknown"}`, nil, domain.IntentUnknown, "I'm cooked honestly"},
		{"garbage", "sure thing!", nil, domain.IntentUnknown, "I'm cooked honestly"},
		{"transport error", "", errors.New("timeout"), domain.IntentUnknown, "I'm cooked honestly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(&fakeChat{reply: tt.reply, err: tt.err}, nil)
			intent, err := c.Parse(context.Background(), "I'm cooked honestly")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent.Type != tt.wantType {
				t.Fatalf("expected %s, got %s", tt.wantType, intent.Type)
			}
			if intent.Payload != tt.wantPayload {
				t.Fatalf("expected payload %q, got %q", tt.wantPayload, intent.Payload)
			}
		})
	}
}

func TestClassifierSendsState(t *testing.T) {
	chat := &fakeChat{reply: `{"intent":"pause_rest"}`}
	c := newClassifier(chat, func(context.Context) string { return "rest running, 40s left" })

	intent, _ := c.Parse(context.Background(), "hold up a sec")
	if intent.Type != domain.IntentPauseRest {
		t.Fatalf("expected pause_rest, got %s", intent.Type)
	}
	if len(chat.last) != 4 {
		t.Fatalf("expected system, state, ack and input messages, got %d", len(chat.last))
	}
	if !strings.Contains(chat.last[1].Content, "rest running") {
		t.Fatalf("expected state in second message, got %q", chat.last[1].Content)
	}
	if chat.last[3].Content != "hold up a sec" {
		t.Fatalf("expected input last, got %q", chat.last[3].Content)
	}
}

func TestClientComplete(t *testing.T) {
	reqs := make(chan request, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		reqs <- req
		w.Write([]byte(`{"choices":[{"finish_reason":"stop","message":{"role":"assistant","content":"{\"intent\":\"status\"}"}}]}`))
	}))
	defer srv.Close()

	log := logger.New(logger.LevelOff, nil)
	ctx := context.Background()
	msgs := []Message{{Role: RoleUser, Content: "how many"}}

	reply, err := NewClient(srv.URL, "k", log, WithModel("gpt-4o-mini")).Complete(ctx, msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != `{"intent":"status"}` {
		t.Fatalf("unexpected reply %q", reply)
	}
	got := <-reqs
	if got.Model != "gpt-4o-mini" || got.Temperature != 0 || got.MaxTokens != maxReplyTokens {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected JSON mode by default, got %+v", got.ResponseFormat)
	}

	if _, err := NewClient(srv.URL, "k", log, WithJSONMode(false)).Complete(ctx, msgs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got = <-reqs; got.ResponseFormat != nil {
		t.Fatalf("expected no response_format with JSON mode off, got %+v", got.ResponseFormat)
	}

	_, err = NewClient(srv.URL, "wrong", log).Complete(ctx, msgs)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected a 401 APIError, got %v", err)
	}
}

func TestClientTruncatedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"finish_reason":"length","message":{"content":"{\"intent\":\"set_re"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", logger.New(logger.LevelOff, nil))
	if _, err := c.Complete(context.Background(), nil); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestIsAzure(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"https://gym.openai.azure.com/openai/deployments/mini/chat/completions?api-version=2024-08-01-preview", true},
		{"https://api.openai.com/v1/chat/completions", false},
		{"http://127.0.0.1:8080/v1/chat/completions", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		if got := isAzure(tt.endpoint); got != tt.want {
			t.Errorf("isAzure(%q) = %v, want %v", tt.endpoint, got, tt.want)
		}
	}
}
