package model

import (
	"fmt"
	"slices"
)

// Kind classifies steps by what triggers them and what they do.
type Kind int

const (
	// KindUser steps react to events of their EventType.
	KindUser Kind = iota
	// KindSystem steps react autonomously, right after the step they follow.
	KindSystem
	// KindHandler steps react to errors raised by system reactions.
	KindHandler
	// KindInclude steps transfer control to an included use case.
	KindInclude
	// KindContinue steps move the runner to another step of the use case.
	KindContinue
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindSystem:
		return "system"
	case KindHandler:
		return "handler"
	case KindInclude:
		return "include"
	case KindContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// Autonomous reports whether steps of this kind react to the system event.
func (k Kind) Autonomous() bool {
	return k == KindSystem || k == KindInclude || k == KindContinue
}

// ContinueMode tells where a continue step moves the runner.
type ContinueMode int

const (
	// ContinueAfter resumes as if the target step had just run.
	ContinueAfter ContinueMode = iota + 1
	// ContinueAt resumes right before the target step.
	ContinueAt
	// ContinueWithoutAlternativeAt resumes right before the target step and
	// disables InsteadOf alternatives to it until the next step runs.
	ContinueWithoutAlternativeAt
)

func (m ContinueMode) String() string {
	switch m {
	case ContinueAfter:
		return "continues after"
	case ContinueAt:
		return "continues at"
	case ContinueWithoutAlternativeAt:
		return "continues without alternative at"
	default:
		return "none"
	}
}

// Step is a single modeled interaction. Steps belong to a use case and,
// unless they are flowless, to a flow of that use case.
type Step struct {
	model *Model
	index int

	name     string
	kind     Kind
	useCase  int
	flow     int
	prev     int
	position Position

	event     EventType
	condition Condition
	loop      Condition
	actors    []*Actor
	reaction  Reaction

	include      int
	continueTo   int
	continueMode ContinueMode
}

// Name returns the step name, unique within its use case.
func (s *Step) Name() string { return s.name }

// Index returns the position of the step in the model's declaration order.
func (s *Step) Index() int { return s.index }

// Kind returns the step kind.
func (s *Step) Kind() Kind { return s.kind }

// Model returns the model the step belongs to.
func (s *Step) Model() *Model { return s.model }

// UseCase returns the owning use case.
func (s *Step) UseCase() *UseCase { return s.model.useCases[s.useCase] }

// Flow returns the owning flow, or nil for flowless steps.
func (s *Step) Flow() *Flow {
	if s.flow < 0 {
		return nil
	}
	return s.model.flows[s.flow]
}

// IsFlowless reports whether the step belongs to no flow.
func (s *Step) IsFlowless() bool { return s.flow < 0 }

// PreviousStepInFlow returns the step before s in its flow, or nil.
func (s *Step) PreviousStepInFlow() *Step { return s.model.StepAt(s.prev) }

// Position returns the flow position. It is meaningless for flowless steps.
func (s *Step) Position() Position { return s.position }

// EventType returns the event binding.
func (s *Step) EventType() EventType { return s.event }

// Condition returns the precondition, including the flow condition for the
// first step of a flow. Nil means the step is always enabled.
func (s *Step) Condition() Condition { return s.condition }

// ReactWhile returns the loop condition, or nil.
func (s *Step) ReactWhile() Condition { return s.loop }

// Actors returns the actors allowed to trigger the step. Empty means any.
func (s *Step) Actors() []*Actor { return slices.Clone(s.actors) }

// Reaction returns the system reaction. Include and continue steps have none;
// their behavior is carried out by the runner.
func (s *Step) Reaction() Reaction { return s.reaction }

// IncludedUseCase returns the use case an include step transfers control to.
func (s *Step) IncludedUseCase() *UseCase {
	if s.include < 0 {
		return nil
	}
	return s.model.useCases[s.include]
}

// ContinueTarget returns the target step and mode of a continue step.
func (s *Step) ContinueTarget() (*Step, ContinueMode) {
	if s.continueTo < 0 {
		return nil, 0
	}
	return s.model.StepAt(s.continueTo), s.continueMode
}

// AllowsActor reports whether a is allowed to trigger the step.
func (s *Step) AllowsActor(a *Actor) bool {
	if len(s.actors) == 0 || a == nil {
		return true
	}
	return slices.Contains(s.actors, a)
}

func (s *Step) String() string {
	return fmt.Sprintf("%s/%s", s.UseCase().name, s.name)
}
