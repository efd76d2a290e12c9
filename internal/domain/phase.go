// Package domain defines the core types and interfaces for the workout coach.
// All other packages depend on domain; domain depends on nothing.
package domain

// Phase is one segment of the tempo cycle.
type Phase int

const (
	// PhaseReady is the initial and post-reset state. Nothing is timed.
	PhaseReady Phase = iota
	// PhaseEccentric is the lowering segment.
	PhaseEccentric
	// PhaseHold is the isometric pause between lowering and lifting.
	PhaseHold
	// PhaseConcentric is the lifting segment.
	PhaseConcentric
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseEccentric:
		return "eccentric"
	case PhaseHold:
		return "hold"
	case PhaseConcentric:
		return "concentric"
	default:
		return "unknown"
	}
}

// Active reports whether the phase is part of the timed cycle.
func (p Phase) Active() bool {
	return p == PhaseEccentric || p == PhaseHold || p == PhaseConcentric
}
