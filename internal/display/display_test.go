package display

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/hammamikhairi/ottolift/internal/domain"
)

var tempo312 = domain.TempoDurations{Eccentric: 3 * time.Second, Hold: time.Second, Concentric: 2 * time.Second}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{1500 * time.Millisecond, "2s"},
		{5 * time.Minute, "5m00s"},
	}
	for _, tt := range tests {
		if got := fmtDuration(tt.in); got != tt.want {
			t.Errorf("fmtDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := fmtSeconds(1250 * time.Millisecond); got != "1.2s" && got != "1.3s" {
		t.Errorf("fmtSeconds(1.25s) = %q", got)
	}
}

func TestPhaseMeter(t *testing.T) {
	st := domain.TempoState{Phase: domain.PhaseEccentric, Elapsed: 1500 * time.Millisecond, Durations: tempo312}
	got := phaseMeter(st, 10)
	if strings.Count(got, "█") != 5 || strings.Count(got, "░") != 5 {
		t.Fatalf("expected half-filled meter, got %q", got)
	}

	st.Elapsed = 10 * time.Second
	if got := phaseMeter(st, 10); strings.Count(got, "█") != 10 {
		t.Fatalf("expected meter capped at full, got %q", got)
	}
}

func TestRenderBar(t *testing.T) {
	snap := domain.Snapshot{
		Exercise: "Back Squat",
		Tempo:    domain.TempoState{Phase: domain.PhaseHold, Elapsed: 400 * time.Millisecond, Reps: 3, Durations: tempo312},
		Rest:     domain.RestState{Remaining: 90 * time.Second, Duration: 90 * time.Second},
		Feedback: domain.FeedbackConfig{Tone: true, Voice: false},
		Sets:     2,
	}

	bar := renderBar(snap, 120)
	for _, want := range []string{"Back Squat", "HOLD", "paused", "reps 3", "rest 1m30s", "sets 2", "tone", "voice"} {
		if !strings.Contains(bar, want) {
			t.Errorf("bar missing %q: %q", want, bar)
		}
	}

	snap.Tempo = domain.TempoState{Phase: domain.PhaseReady, Durations: tempo312}
	snap.Rest = domain.RestState{Running: true, Remaining: 42 * time.Second, Duration: 90 * time.Second}
	bar = renderBar(snap, 120)
	if !strings.Contains(bar, "ready 3-1-2") || !strings.Contains(bar, "rest 42s") {
		t.Errorf("unexpected idle bar %q", bar)
	}
	if got := titleStr(snap); got != "OttoLift · rest 42s" {
		t.Errorf("title = %q", got)
	}
}

func TestModelAppliesSnapshots(t *testing.T) {
	m := model{input: textinput.New()}
	if strings.Contains(m.View(), "reps") {
		t.Fatal("expected no bar before the first snapshot")
	}

	next, _ := m.Update(snapshotMsg{snap: domain.Snapshot{Tempo: domain.TempoState{Running: true, Phase: domain.PhaseConcentric, Reps: 7, Durations: tempo312}}})
	m = next.(model)
	if !strings.Contains(m.View(), "reps 7") {
		t.Fatalf("expected bar with reps, got %q", m.View())
	}

	next, _ = m.Update(snapshotMsg{err: errors.New("scheduler stopped")})
	m = next.(model)
	if !strings.Contains(m.View(), "reps 7") {
		t.Fatal("expected a failed fetch to keep the last frame")
	}
}

func TestFetchCmdTimesOut(t *testing.T) {
	slow := func(ctx context.Context) (domain.Snapshot, error) {
		<-ctx.Done()
		return domain.Snapshot{}, ctx.Err()
	}
	msg := fetchCmd(slow)().(snapshotMsg)
	if !errors.Is(msg.err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", msg.err)
	}
}

func TestRenderBannerCentres(t *testing.T) {
	out := renderBanner(200, "tempo coach")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.HasPrefix(lines[0], "     ") {
		t.Fatalf("expected padded banner, got %q", lines[0])
	}
	if !strings.Contains(lines[len(lines)-1], "tempo coach") {
		t.Fatalf("expected tagline last, got %q", lines[len(lines)-1])
	}
}
