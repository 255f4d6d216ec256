package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// session is the state shared by a runner and all its actor views.
type session struct {
	id         string
	logger     *slog.Logger
	observer   api.Observer
	handler    api.StepHandler
	publisher  api.Publisher
	maxDepth   int
	vars       map[string]any
	model      *model.Model
	steps      []*model.Step
	running    bool
	frames     []*frame
	history    []string
	latest     *model.Step
	suppressed *model.Step // step whose InsteadOf alternatives are disabled
	depth      int         // reactions for the event being dispatched
}

// runner is a synchronous, in-process api.Runner.
type runner struct {
	s     *session
	actor *model.Actor
}

var (
	_ api.Runner  = (*runner)(nil)
	_ model.State = (*runner)(nil)
)

// NewRunner creates a runner. Call Run before dispatching events.
func NewRunner(cfg Config) api.Runner {
	cfg = cfg.withDefaults()
	return &runner{
		s: &session{
			id:        cfg.ID,
			logger:    cfg.Logger,
			observer:  cfg.Observer,
			handler:   cfg.StepHandler,
			publisher: cfg.Publisher,
			maxDepth:  cfg.MaxChainDepth,
			vars:      cfg.Vars,
		},
		actor: cfg.Actor,
	}
}

func (r *runner) ID() string { return r.s.id }

func (r *runner) Run(ctx context.Context, m *model.Model) error {
	if m == nil {
		return api.ErrNilModel
	}
	s := r.s
	s.model = m
	s.steps = m.Steps()
	s.frames = []*frame{{}}
	s.history = nil
	s.latest = nil
	s.suppressed = nil
	s.depth = 0
	s.running = true

	s.observer.OnRunStart(ctx, s.id, m)
	return r.fireAutonomous(ctx)
}

func (r *runner) ReactTo(ctx context.Context, events ...any) (*model.Step, error) {
	var last *model.Step
	for _, ev := range events {
		if !r.s.running {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.s.depth = 0
		step, err := r.dispatch(ctx, ev)
		if err != nil {
			return nil, err
		}
		last = step
	}
	return last, nil
}

func (r *runner) Stop(ctx context.Context) {
	if !r.s.running {
		return
	}
	r.s.running = false
	r.s.observer.OnRunStop(ctx, r.s.id)
}

func (r *runner) IsRunning() bool { return r.s.running }

func (r *runner) As(actor *model.Actor) api.Runner {
	return &runner{s: r.s, actor: actor}
}

func (r *runner) Model() *model.Model { return r.s.model }

func (r *runner) LatestStep() *model.Step { return r.s.latest }

func (r *runner) RunStepNames() []string { return slices.Clone(r.s.history) }

func (r *runner) Vars() map[string]any { return r.s.vars }

func (r *runner) SetVar(name string, value any) { r.s.vars[name] = value }

func (r *runner) StepsThatCanReactTo(ctx context.Context, event any) ([]*model.Step, error) {
	if !r.s.running {
		return nil, nil
	}
	n, err := r.settledDepth(ctx)
	if err != nil {
		return nil, err
	}
	return r.eligible(ctx, event, r.s.frames[n-1])
}

func (r *runner) CanReactTo(ctx context.Context, event any) (bool, error) {
	if !r.s.running {
		return false, nil
	}
	n, err := r.settledDepth(ctx)
	if err != nil {
		return false, err
	}
	c, err := r.selectStep(ctx, event, r.s.frames[n-1])
	return c != nil, err
}

// dispatch lets the best eligible step react to event. It returns nil when
// no step is eligible.
func (r *runner) dispatch(ctx context.Context, event any) (*model.Step, error) {
	s := r.s
	if !s.running {
		return nil, nil
	}
	if err := r.settle(ctx); err != nil {
		return nil, err
	}
	c, err := r.selectStep(ctx, event, s.top())
	if err != nil {
		return nil, err
	}
	if c == nil {
		s.observer.OnEventUnhandled(ctx, s.id, event)
		s.logger.DebugContext(ctx, "event_unhandled",
			slog.String("event", api.EventName(event)),
		)
		return nil, nil
	}
	return c.step, r.execute(ctx, c)
}

// fireAutonomous lets eligible system, include and continue steps react
// until none is left.
func (r *runner) fireAutonomous(ctx context.Context) error {
	s := r.s
	if !s.running {
		return nil
	}
	if err := r.settle(ctx); err != nil {
		return err
	}
	c, err := r.selectStep(ctx, model.SystemEvent(), s.top())
	if err != nil || c == nil {
		return err
	}
	return r.execute(ctx, c)
}

func (r *runner) execute(ctx context.Context, c *candidate) error {
	s := r.s
	s.depth++
	if s.depth > s.maxDepth {
		return fmt.Errorf("%w: more than %d reactions at step %s", api.ErrChainTooDeep, s.maxDepth, c.step)
	}

	step := c.step
	s.history = append(s.history, step.Name())
	s.latest = step
	// Flowless steps of other use cases do not move an include frame.
	if f := s.top(); !step.IsFlowless() || f.covers(step.UseCase()) {
		f.latest = step
	}
	s.suppressed = nil

	toRun := api.NewStepToBeRun(step, c.event, r.reactionFor(step, c.event))

	s.observer.OnStepStart(ctx, s.id, step)
	start := time.Now()
	out, err := s.handler(ctx, toRun)
	s.observer.OnStepCompleted(ctx, s.id, step, err, time.Since(start))

	if err != nil {
		return r.handleError(ctx, step, err)
	}
	for _, ev := range out {
		if err := r.publish(ctx, ev); err != nil {
			return err
		}
	}
	return r.fireAutonomous(ctx)
}

func (r *runner) reactionFor(step *model.Step, event any) func(ctx context.Context) ([]any, error) {
	switch step.Kind() {
	case model.KindInclude:
		return func(ctx context.Context) ([]any, error) {
			r.pushInclude(ctx, step)
			return nil, nil
		}
	case model.KindContinue:
		return func(ctx context.Context) ([]any, error) {
			r.continueAt(step)
			return nil, nil
		}
	default:
		react := step.Reaction()
		return func(ctx context.Context) ([]any, error) {
			return react(ctx, event)
		}
	}
}

// handleError dispatches a reaction error to handler steps. Frames are not
// settled first, so handlers positioned after the failing step stay eligible.
func (r *runner) handleError(ctx context.Context, failed *model.Step, cause error) error {
	s := r.s
	if !s.running {
		return cause
	}
	c, err := r.selectStep(ctx, cause, s.top())
	if err != nil {
		return err
	}
	if c == nil {
		s.logger.DebugContext(ctx, "reaction_error_unhandled",
			slog.String("step", failed.Name()),
			slog.Any("error", cause),
		)
		return cause
	}
	return r.execute(ctx, c)
}

func (r *runner) publish(ctx context.Context, event any) error {
	if r.s.publisher != nil {
		return r.s.publisher(ctx, event)
	}
	_, err := r.dispatch(ctx, event)
	return err
}
