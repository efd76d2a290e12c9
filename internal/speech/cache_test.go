package speech

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/hammamikhairi/ottolift/internal/logger"
)

func TestCachePinnedCuesSurviveEviction(t *testing.T) {
	c := NewAudioCache("voice", "", false, logger.New(logger.LevelOff, nil))

	if missing := c.Pin(1.1, "Lower", "Hold"); !reflect.DeepEqual(missing, []string{"Lower", "Hold"}) {
		t.Fatalf("expected both cues missing, got %v", missing)
	}
	c.Put("Lower", 1.1, []byte("lower"))
	for i := 0; i < recentEntries*2; i++ {
		c.Put(fmt.Sprintf("I didn't catch %d", i), 1.0, []byte("x"))
	}

	if got, ok := c.Get("Lower", 1.1); !ok || string(got) != "lower" {
		t.Fatalf("expected pinned cue to survive, got %q %v", got, ok)
	}
	if c.Has("I didn't catch 0", 1.0) {
		t.Fatal("expected the oldest one-off line to be evicted")
	}
	s := c.Stats()
	if s.Pinned != 1 || s.Recent != recentEntries {
		t.Fatalf("expected 1 pinned and %d recent, got %+v", recentEntries, s)
	}
}

func TestCachePinPromotesRecent(t *testing.T) {
	c := NewAudioCache("voice", "", false, logger.New(logger.LevelOff, nil))
	c.Put("Rest is over", 1.0, []byte("wav"))

	if missing := c.Pin(1.0, "Rest is over", "", "10 seconds"); !reflect.DeepEqual(missing, []string{"10 seconds"}) {
		t.Fatalf("expected only the unsynthesized cue missing, got %v", missing)
	}
	if s := c.Stats(); s.Pinned != 1 || s.Recent != 0 {
		t.Fatalf("expected the line moved to the pinned tier, got %+v", s)
	}
	if c.Has("Rest is over", 1.5) {
		t.Fatal("expected the rate to be part of the key")
	}
}

func TestCacheDiskLayer(t *testing.T) {
	dir := t.TempDir()
	log := logger.New(logger.LevelOff, nil)

	first := NewAudioCache("en-US-Guy", dir, true, log)
	first.Put("Lower", 1.1, []byte("lower"))

	// A read-only cache still sees what an earlier run wrote.
	second := NewAudioCache("en-US-Guy", dir, false, log)
	if missing := second.Pin(1.1, "Lower"); len(missing) != 0 {
		t.Fatalf("expected Lower loaded from disk, got missing %v", missing)
	}
	if got, ok := second.Get("Lower", 1.1); !ok || string(got) != "lower" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	second.Put("Lift", 1.1, []byte("lift"))

	third := NewAudioCache("en-US-Guy", dir, false, log)
	if third.Has("Lift", 1.1) {
		t.Fatal("expected a read-only cache not to write to disk")
	}

	other := NewAudioCache("en-GB-Ryan", dir, false, log)
	if _, ok := other.Get("Lower", 1.1); ok {
		t.Fatal("expected a different voice to miss")
	}
	if s := other.Stats(); s.Misses != 1 {
		t.Fatalf("expected one miss, got %+v", s)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lower", "lower"},
		{"Rest is over!", "rest-is-over"},
		{"  10 seconds  ", "10-seconds"},
		{"...", "x"},
		{"Set 1: 12 reps of Front Squat", "set-1-12-reps-of-front-squat"},
	}
	for _, tt := range tests {
		if got := slug(tt.in, 32); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := slug("a very long line that keeps going and going", 10); len(got) > 10 {
		t.Errorf("expected slug capped at 10, got %q", got)
	}
}
