package main

import (
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/ottolift/internal/config"
	"github.com/hammamikhairi/ottolift/internal/domain"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	if err := applyFlags(cfg, true, false, "stderr", "Press", "4/1/1", 120, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "verbose" || cfg.LogFile != "stderr" || cfg.Exercise != "Press" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := cfg.TempoDurations().String(); got != "4-1-1" {
		t.Fatalf("tempo = %s, want 4-1-1", got)
	}
	if got := cfg.RestDuration(); got != 2*time.Minute {
		t.Fatalf("rest = %s, want 2m", got)
	}
	if !cfg.Listen.Enabled {
		t.Fatal("expected listen enabled")
	}

	if err := applyFlags(config.Default(), false, false, "", "", "fast", 0, false); err == nil {
		t.Fatal("expected bad tempo to fail")
	}
	if err := applyFlags(config.Default(), false, false, "", "", "", -5, false); err == nil {
		t.Fatal("expected negative rest to fail")
	}
	if err := applyFlags(config.Default(), false, false, "", "", "", 1e20, false); err == nil {
		t.Fatal("expected huge rest to fail")
	}
	if err := applyFlags(config.Default(), false, false, "", "", "2e10-1-1", 0, false); err == nil {
		t.Fatal("expected huge tempo to fail")
	}
}

func TestDescribe(t *testing.T) {
	tempo := domain.TempoDurations{Eccentric: 3 * time.Second, Hold: time.Second, Concentric: 2 * time.Second}
	snap := domain.Snapshot{
		Exercise: "Row",
		Tempo:    domain.TempoState{Phase: domain.PhaseHold, Reps: 4, Durations: tempo},
		Rest:     domain.RestState{Running: true, Remaining: 30 * time.Second, Duration: 90 * time.Second},
	}

	got := describe(snap)
	for _, want := range []string{"set paused in hold phase, 4 reps", "rest running, 30.0s left", "exercise Row", "tempo 3-1-2"} {
		if !strings.Contains(got, want) {
			t.Errorf("describe missing %q: %q", want, got)
		}
	}
}

func TestFmtClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1250 * time.Millisecond, "1.3s"},
		{59 * time.Second, "59.0s"},
		{90 * time.Second, "1:30"},
	}
	for _, tt := range tests {
		if got := fmtClock(tt.in); got != tt.want {
			t.Errorf("fmtClock(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
