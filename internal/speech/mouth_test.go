package speech

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottolift/internal/logger"
)

// fakeSynth returns the text itself as audio.
type fakeSynth struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ float64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []byte(text), nil
}

func (f *fakeSynth) Voice() string { return "test-voice" }

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSink "plays" until release is closed. A cancelled playback is
// counted as a stop and reported on cut, then held until release so the
// test controls when the mouth moves on.
type fakeSink struct {
	mu      sync.Mutex
	played  []string
	stops   int
	started chan string
	cut     chan string
	release chan struct{}
}

// newFakeSink returns a sink whose playback finishes instantly.
func newFakeSink() *fakeSink {
	f := newBlockingSink()
	close(f.release)
	return f
}

// newBlockingSink returns a sink whose playback lasts until release closes.
func newBlockingSink() *fakeSink {
	return &fakeSink{
		started: make(chan string, 16),
		cut:     make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (f *fakeSink) Play(ctx context.Context, wav []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.played = append(f.played, string(wav))
	f.mu.Unlock()
	f.started <- string(wav)

	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		f.mu.Lock()
		f.stops++
		f.mu.Unlock()
		f.cut <- string(wav)
		<-f.release
		return ctx.Err()
	}
}

func (f *fakeSink) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *fakeSink) playedCopy() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

func waitStarted(t *testing.T, sink *fakeSink, want string) {
	t.Helper()
	select {
	case got := <-sink.started:
		if got != want {
			t.Fatalf("expected %q to start, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func runMouth(t *testing.T, m *Mouth) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestMouthLatestOnly(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	sink := newBlockingSink()
	m := NewMouth(&fakeSynth{}, sink, log)
	runMouth(t, m)

	if err := m.Speak("Lower", 1.1); err != nil {
		t.Fatalf("speak: %v", err)
	}
	waitStarted(t, sink, "Lower")

	// "Hold" is replaced before it ever starts.
	m.Speak("Hold", 1.1)
	m.Speak("Lift", 1.1)
	select {
	case got := <-sink.cut:
		if got != "Lower" {
			t.Fatalf("expected Lower to be cut off, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Lower to be cut off")
	}
	if !m.IsSpeaking() {
		t.Fatal("expected mouth to report speaking")
	}

	close(sink.release)
	waitStarted(t, sink, "Lift")

	want := []string{"Lower", "Lift"}
	if got := sink.playedCopy(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if sink.stopCount() != 1 {
		t.Fatalf("expected one cut, got %d", sink.stopCount())
	}
}

// stallWriter blocks the first write containing match until release closes.
type stallWriter struct {
	match   string
	once    sync.Once
	stalled chan struct{}
	release chan struct{}
}

func (w *stallWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), w.match) {
		w.once.Do(func() {
			close(w.stalled)
			<-w.release
		})
	}
	return len(p), nil
}

func TestMouthSpeakJustBeforePlaybackWins(t *testing.T) {
	w := &stallWriter{match: "mouth: speaking", stalled: make(chan struct{}), release: make(chan struct{})}
	log := logger.New(logger.LevelVerbose, w)
	sink := newFakeSink()
	m := NewMouth(&fakeSynth{}, sink, log)
	runMouth(t, m)

	m.Speak("Lower", 1.1)
	select {
	case <-w.stalled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the mouth to reach playback")
	}

	// "Lower" has passed its staleness check but has not started playing.
	m.Speak("3", 1.1)
	close(w.release)
	waitStarted(t, sink, "3")

	if got := sink.playedCopy(); !reflect.DeepEqual(got, []string{"3"}) {
		t.Fatalf("expected only the newest utterance to play, got %v", got)
	}
	deadline := time.Now().Add(2 * time.Second)
	for m.LastSpoken() != "3" {
		if time.Now().After(deadline) {
			t.Fatalf("expected last spoken 3, got %q", m.LastSpoken())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMouthInterrupt(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	sink := newBlockingSink()
	m := NewMouth(&fakeSynth{}, sink, log)
	runMouth(t, m)

	m.Speak("Rest is over", 1.0)
	waitStarted(t, sink, "Rest is over")
	m.Interrupt()
	select {
	case <-sink.cut:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the interrupt to cut playback")
	}
	close(sink.release)

	m.Speak("Lower", 1.1)
	waitStarted(t, sink, "Lower")
	if sink.stopCount() != 1 {
		t.Fatalf("expected the new utterance to play uncut, got %d stops", sink.stopCount())
	}
}

func TestMouthCachesAudio(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	synth := &fakeSynth{}
	sink := newFakeSink()
	m := NewMouth(synth, sink, log)
	runMouth(t, m)

	m.Speak("1", 1.1)
	waitStarted(t, sink, "1")
	m.Speak("1", 1.1)
	waitStarted(t, sink, "1")

	if synth.callCount() != 1 {
		t.Fatalf("expected one synthesis for repeated text, got %d", synth.callCount())
	}

	m.Speak("1", 1.5)
	waitStarted(t, sink, "1")
	if synth.callCount() != 2 {
		t.Fatalf("expected a new synthesis for a new rate, got %d", synth.callCount())
	}
}

func TestMouthStopped(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	m := NewMouth(&fakeSynth{}, newFakeSink(), log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	cancel()
	<-done

	if err := m.Speak("Lower", 1.0); !errors.Is(err, ErrMouthStopped) {
		t.Fatalf("expected ErrMouthStopped, got %v", err)
	}
	if err := m.Speak("", 1.0); err != nil {
		t.Fatalf("expected empty text to be ignored, got %v", err)
	}
}

func TestMouthPrefetch(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	synth := &fakeSynth{}
	m := NewMouth(synth, newFakeSink(), log)

	m.Prefetch(context.Background(), 1.1, "Lower", "Hold", "Lift", "")

	deadline := time.Now().Add(2 * time.Second)
	for m.Cache().Len() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 cached entries, got %d", m.Cache().Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !m.Cache().Has("Hold", 1.1) {
		t.Fatal("expected Hold cached at 1.1")
	}
	if m.Cache().Has("Hold", 1.0) {
		t.Fatal("expected rate to be part of the cache key")
	}
}
