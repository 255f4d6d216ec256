package api

import (
	"context"
	"errors"

	"github.com/petrijr/reqflow/pkg/model"
)

var (
	// ErrNilModel is returned by Run when no model is given.
	ErrNilModel = errors.New("model must not be nil")

	// ErrCondition wraps errors returned by conditions while matching.
	ErrCondition = errors.New("condition evaluation failed")

	// ErrChainTooDeep is returned when the reactions triggered by a single
	// event exceed the configured chain depth, e.g. because two steps keep
	// publishing events for each other.
	ErrChainTooDeep = errors.New("reaction chain too deep")
)

// Runner runs a model: it matches incoming events against eligible steps,
// executes their reactions and keeps the run history.
//
// A Runner is not safe for concurrent use. Callers that share a runner
// between goroutines must serialize calls, for example with a LocalRunner.
type Runner interface {
	// ID identifies the runner in logs, metrics and journals.
	ID() string

	// Run starts running m, resetting history and position. Autonomous
	// system steps eligible at the start react immediately.
	Run(ctx context.Context, m *model.Model) error

	// ReactTo dispatches events in order and returns the step that reacted
	// to the last one, or nil if no step did. Events without an eligible
	// step are ignored. A reaction error that no handler step catches is
	// returned unchanged.
	ReactTo(ctx context.Context, events ...any) (*model.Step, error)

	// Stop stops the runner. Later calls to ReactTo are ignored.
	Stop(ctx context.Context)

	// IsRunning reports whether Run was called and Stop was not.
	IsRunning() bool

	// As returns a view of the same runner that only triggers steps open to
	// actor. Autonomous system steps are not restricted.
	As(actor *model.Actor) Runner

	// Model returns the model being run, or nil.
	Model() *model.Model

	// LatestStep returns the most recently executed step, or nil.
	LatestStep() *model.Step

	// RunStepNames returns the names of executed steps, oldest first.
	RunStepNames() []string

	// StepsThatCanReactTo returns the steps eligible for event, best match
	// first. It does not change the runner.
	StepsThatCanReactTo(ctx context.Context, event any) ([]*model.Step, error)

	// CanReactTo reports whether any step is eligible for event.
	CanReactTo(ctx context.Context, event any) (bool, error)

	// SetVar sets a variable visible to conditions through State.Vars.
	SetVar(name string, value any)
}

// StepHandler performs the reaction of a matched step. The default handler
// calls s.Run. Custom handlers can wrap the call, e.g. in a transaction, or
// skip it altogether. The returned events are published like the events of
// the reaction itself.
type StepHandler func(ctx context.Context, s *StepToBeRun) ([]any, error)

// Publisher receives the events returned by reactions. When a runner has a
// publisher, returned events are handed to it instead of being dispatched
// to the model.
type Publisher func(ctx context.Context, event any) error

// RunStep is the default StepHandler.
func RunStep(ctx context.Context, s *StepToBeRun) ([]any, error) {
	return s.Run(ctx)
}

// StepToBeRun describes a matched step whose reaction has not run yet.
type StepToBeRun struct {
	step  *model.Step
	event any
	run   func(ctx context.Context) ([]any, error)
}

// NewStepToBeRun is used by runner implementations.
func NewStepToBeRun(step *model.Step, event any, run func(ctx context.Context) ([]any, error)) *StepToBeRun {
	return &StepToBeRun{step: step, event: event, run: run}
}

// Step returns the matched step.
func (s *StepToBeRun) Step() *model.Step { return s.step }

// StepName returns the name of the matched step.
func (s *StepToBeRun) StepName() string { return s.step.Name() }

// Condition returns the step precondition, or nil.
func (s *StepToBeRun) Condition() model.Condition { return s.step.Condition() }

// Event returns the event the reaction will receive. It reports false for
// autonomous steps, which react to no event.
func (s *StepToBeRun) Event() (any, bool) {
	if model.IsSystemEvent(s.event) {
		return nil, false
	}
	return s.event, true
}

// Reaction returns the modeled reaction. It is nil for include and
// continue steps.
func (s *StepToBeRun) Reaction() model.Reaction { return s.step.Reaction() }

// Run performs the reaction and returns the events to publish.
func (s *StepToBeRun) Run(ctx context.Context) ([]any, error) {
	return s.run(ctx)
}
