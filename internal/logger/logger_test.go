package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("expected debug line to be suppressed at normal level, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[INF]") || !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("expected info line, got %q", buf.String())
	}

	buf.Reset()
	log.SetLevel(LevelOff)
	log.Error("nope")
	if buf.Len() != 0 {
		t.Fatalf("expected no output when off, got %q", buf.String())
	}
}

func TestWithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelOff, &buf)
	tempo := root.With("tempo")

	root.SetLevel(LevelVerbose)
	tempo.Debug("phase %s", "hold")

	if !strings.Contains(buf.String(), "tempo: phase hold") {
		t.Fatalf("expected prefixed debug line, got %q", buf.String())
	}
	if tempo.GetLevel() != LevelVerbose {
		t.Fatalf("expected child level verbose, got %s", tempo.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"off", LevelOff, false},
		{"Quiet", LevelOff, false},
		{"", LevelNormal, false},
		{"normal", LevelNormal, false},
		{"VERBOSE", LevelVerbose, false},
		{"debug", LevelVerbose, false},
		{"loud", LevelOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
