package timer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/feedback"
)

// Spoken cue vocabulary.
const (
	WordLower  = "Lower"
	WordHold   = "Hold"
	WordLift   = "Lift"
	WordPaused = "Paused"
	WordResume = "Resume"
)

// cue is what the user hears when a phase begins.
type cue struct {
	tone feedback.Tone
	word string // empty: speak the rep count instead
}

// transition describes what happens when a phase runs out.
type transition struct {
	next        domain.Phase
	cue         cue
	repComplete bool
}

// phaseTable is the tempo cycle. PhaseReady leaves only through Start.
var phaseTable = map[domain.Phase]transition{
	domain.PhaseReady:      {next: domain.PhaseEccentric, cue: cue{feedback.ToneLower, WordLower}},
	domain.PhaseEccentric:  {next: domain.PhaseHold, cue: cue{feedback.ToneHold, WordHold}},
	domain.PhaseHold:       {next: domain.PhaseConcentric, cue: cue{feedback.ToneLift, WordLift}},
	domain.PhaseConcentric: {next: domain.PhaseEccentric, cue: cue{feedback.ToneRepComplete, ""}, repComplete: true},
}

// step is the result of evaluating one tick.
type step struct {
	changed bool
	transition
}

// nextPhase decides whether a phase with the given elapsed time is over.
// It has no side effects.
func nextPhase(p domain.Phase, elapsed time.Duration, d domain.TempoDurations) step {
	if !p.Active() || elapsed < d.Of(p) {
		return step{transition: transition{next: p}}
	}
	return step{changed: true, transition: phaseTable[p]}
}

// SetCompleteLine is the announcement made when a set with reps is finished.
func SetCompleteLine(reps int) string {
	if reps == 1 {
		return "Set complete. 1 rep"
	}
	return fmt.Sprintf("Set complete. %d reps", reps)
}

// Announcements lists every phrase the tempo tracker can speak for sets of
// up to maxReps reps. Voices use it to warm their caches.
func Announcements(maxReps int) []string {
	lines := []string{WordLower, WordHold, WordLift, WordPaused, WordResume}
	for n := 1; n <= maxReps; n++ {
		lines = append(lines, strconv.Itoa(n))
	}
	for n := 1; n <= maxReps; n++ {
		lines = append(lines, SetCompleteLine(n))
	}
	return lines
}
