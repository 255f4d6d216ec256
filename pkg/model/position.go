package model

import "slices"

// PositionKind selects when a flow step may react relative to what the
// runner executed before.
type PositionKind int

const (
	// AtStart holds before any step ran in the current scope.
	AtStart PositionKind = iota
	// After holds right after the anchor step.
	After
	// InsteadOf holds whenever the replaced step's own position holds.
	InsteadOf
	// Anytime always holds.
	Anytime
)

func (k PositionKind) String() string {
	switch k {
	case AtStart:
		return "at start"
	case After:
		return "after"
	case InsteadOf:
		return "instead of"
	case Anytime:
		return "anytime"
	default:
		return "unknown"
	}
}

// Position is the flow position of a step. Steps are referenced by their
// index in the model's step table, see Model.StepAt.
type Position struct {
	kind    PositionKind
	step    int
	orAfter []int
}

func atStart() Position               { return Position{kind: AtStart, step: -1} }
func anytime() Position               { return Position{kind: Anytime, step: -1} }
func after(step int) Position         { return Position{kind: After, step: step} }
func insteadOf(replaced int) Position { return Position{kind: InsteadOf, step: replaced} }

// Kind returns the position variant.
func (p Position) Kind() PositionKind { return p.kind }

// Anchor returns the step index of an After anchor or the replaced step of
// InsteadOf, and -1 otherwise.
func (p Position) Anchor() int { return p.step }

// OrAfter returns additional After anchors, e.g. the step itself for
// ReactWhile loops.
func (p Position) OrAfter() []int { return slices.Clone(p.orAfter) }

// HasOrAfter reports whether step is one of the additional anchors.
func (p Position) HasOrAfter(step int) bool { return slices.Contains(p.orAfter, step) }

func (p Position) withOrAfter(step int) Position {
	if p.HasOrAfter(step) {
		return p
	}
	p.orAfter = append(slices.Clone(p.orAfter), step)
	return p
}
