package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseTempo(t *testing.T) {
	tests := []struct {
		in      string
		want    TempoDurations
		wantErr bool
	}{
		{"3-1-2", TempoDurations{3 * time.Second, time.Second, 2 * time.Second}, false},
		{"4 0.5 1", TempoDurations{4 * time.Second, 500 * time.Millisecond, time.Second}, false},
		{"0.3/0.3/0.3", TempoDurations{300 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}, false},
		{"3,1", TempoDurations{}, true},
		{"3-x-2", TempoDurations{}, true},
		{"3-0-2", TempoDurations{}, true},
		{"2e10-1-1", TempoDurations{}, true},
		{"86401-1-1", TempoDurations{}, true},
		{"NaN-1-1", TempoDurations{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTempo(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if round, _ := ParseTempo(got.String()); round != got {
				t.Fatalf("expected %q to parse back to itself", got.String())
			}
		})
	}

	if _, err := ParseTempo("3-0-2"); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestSecondsToDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{1.5, 1500 * time.Millisecond},
		{0.0004, 0},
		{86400, MaxDuration},
		{86400.5, 0},
		{1e20, 0},
		{-3, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := SecondsToDuration(tt.in); got != tt.want {
			t.Errorf("SecondsToDuration(%g) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTempoStateViews(t *testing.T) {
	s := TempoState{
		Phase:     PhaseHold,
		Elapsed:   400 * time.Millisecond,
		Durations: TempoDurations{3 * time.Second, time.Second, 2 * time.Second},
	}
	if got := s.Remaining(); got != 600*time.Millisecond {
		t.Fatalf("expected 600ms remaining, got %s", got)
	}
	if !s.Paused() {
		t.Fatal("expected a stopped active phase to count as paused")
	}

	s.Phase = PhaseReady
	if s.Paused() || s.Remaining() != 0 {
		t.Fatalf("expected ready to be neither paused nor timed, got %+v", s)
	}
}

func TestIntentNames(t *testing.T) {
	for _, it := range []IntentType{IntentStartSet, IntentSetTempo, IntentVoiceOff, IntentQuit} {
		if got := IntentFromString(it.String()); got != it {
			t.Fatalf("expected %s to round-trip, got %s", it, got)
		}
	}
	if IntentFromString("bogus") != IntentUnknown {
		t.Fatal("expected unknown for unrecognized name")
	}
}
