package speech

import (
	"context"
	"sync"
	"testing"

	"github.com/hammamikhairi/ottolift/internal/logger"
)

type textNotifier struct {
	mu     sync.Mutex
	plain  []string
	urgent []string
}

func (n *textNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.plain = append(n.plain, msg)
	return nil
}

func (n *textNotifier) NotifyUrgent(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, msg)
	return nil
}

type voiceLog struct {
	mu     sync.Mutex
	spoken []string
}

func (v *voiceLog) Speak(text string, _ float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spoken = append(v.spoken, text)
	return nil
}

func TestSpeakingNotifier(t *testing.T) {
	ctx := context.Background()
	text := &textNotifier{}
	voice := &voiceLog{}
	on := true
	n := NewSpeakingNotifier(text, voice, func() bool { return on }, logger.New(logger.LevelOff, nil))

	n.Notify(ctx, "Logged 8 reps.")
	n.NotifyUrgent(ctx, "\x1b[1m[REST]\x1b[0m Rest over. Next set.")

	if len(text.plain) != 1 || len(text.urgent) != 1 {
		t.Fatalf("expected every message printed, got %d plain and %d urgent", len(text.plain), len(text.urgent))
	}
	if len(voice.spoken) != 1 || voice.spoken[0] != "Rest over. Next set." {
		t.Fatalf("expected only the cleaned urgent message spoken, got %v", voice.spoken)
	}

	on = false
	n.NotifyUrgent(ctx, "Rest over.")
	if len(voice.spoken) != 1 {
		t.Fatalf("expected silence with voice off, got %v", voice.spoken)
	}
}
