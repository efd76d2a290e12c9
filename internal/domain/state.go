package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// TempoDurations holds the configured length of each timed phase.
// Every field must be positive and at most MaxDuration.
type TempoDurations struct {
	Eccentric  time.Duration
	Hold       time.Duration
	Concentric time.Duration
}

// Of returns the configured duration for a phase, or 0 for PhaseReady.
func (d TempoDurations) Of(p Phase) time.Duration {
	switch p {
	case PhaseEccentric:
		return d.Eccentric
	case PhaseHold:
		return d.Hold
	case PhaseConcentric:
		return d.Concentric
	default:
		return 0
	}
}

// Valid reports whether every phase duration is positive.
func (d TempoDurations) Valid() bool {
	ok := func(x time.Duration) bool { return x > 0 && x <= MaxDuration }
	return ok(d.Eccentric) && ok(d.Hold) && ok(d.Concentric)
}

// RestState is a read-only view of the rest countdown.
// Invariant: 0 <= Remaining <= Duration.
type RestState struct {
	Running   bool
	Remaining time.Duration
	Duration  time.Duration
}

// TempoState is a read-only view of the tempo tracker.
// Elapsed is always below the current phase's configured duration and is
// zero in PhaseReady.
type TempoState struct {
	Running   bool
	Phase     Phase
	Elapsed   time.Duration
	Reps      int
	Durations TempoDurations
}

// Remaining returns the time left in the current phase.
func (s TempoState) Remaining() time.Duration {
	d := s.Durations.Of(s.Phase) - s.Elapsed
	if d < 0 {
		return 0
	}
	return d
}

// Paused reports whether a set is in progress but not ticking.
func (s TempoState) Paused() bool {
	return !s.Running && s.Phase.Active()
}

// FeedbackConfig holds the two independent cue toggles.
type FeedbackConfig struct {
	Tone  bool
	Voice bool
}

// Snapshot is everything the presentation layer needs to render one frame.
type Snapshot struct {
	Exercise string
	Rest     RestState
	Tempo    TempoState
	Feedback FeedbackConfig
	Sets     int // sets finished in this session
}

// SetRecord is a finished set reported upward by the tempo tracker.
type SetRecord struct {
	ID         string
	Exercise   string
	Reps       int
	Tempo      TempoDurations
	FinishedAt time.Time
}

// ParseTempo reads a tempo written as three second counts for the
// eccentric, hold and concentric phases, separated by dashes, slashes,
// commas or spaces: "3-1-2", "3/0.5/2", "4 1 1".
func ParseTempo(s string) (TempoDurations, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != 3 {
		return TempoDurations{}, fmt.Errorf("tempo %q: want three numbers", s)
	}

	var secs [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return TempoDurations{}, fmt.Errorf("tempo %q: %w", s, err)
		}
		secs[i] = v
	}

	d := TempoDurations{
		Eccentric:  SecondsToDuration(secs[0]),
		Hold:       SecondsToDuration(secs[1]),
		Concentric: SecondsToDuration(secs[2]),
	}
	if !d.Valid() {
		return TempoDurations{}, fmt.Errorf("tempo %q: %w", s, ErrInvalidDuration)
	}
	return d, nil
}

// MaxDuration caps a rest countdown or a single tempo phase.
const MaxDuration = 24 * time.Hour

// SecondsToDuration converts fractional seconds to a duration rounded to the
// millisecond. NaN, negative and over-MaxDuration inputs return 0, which
// every caller rejects as invalid.
func SecondsToDuration(secs float64) time.Duration {
	if math.IsNaN(secs) || secs <= 0 || secs > MaxDuration.Seconds() {
		return 0
	}
	return time.Duration(math.Round(secs*1000)) * time.Millisecond
}

// String formats the tempo as seconds, e.g. "3-1-2" or "3-0.5-2".
func (d TempoDurations) String() string {
	f := func(x time.Duration) string {
		return strconv.FormatFloat(x.Seconds(), 'f', -1, 64)
	}
	return f(d.Eccentric) + "-" + f(d.Hold) + "-" + f(d.Concentric)
}
