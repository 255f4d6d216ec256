package engine

import (
	"context"
	"log/slog"

	"github.com/petrijr/reqflow/pkg/model"
)

// frame is the scope of the root model or of one active use case inclusion.
type frame struct {
	useCase *model.UseCase // nil for the root frame
	latest  *model.Step    // latest step executed in this scope
	include *model.Step    // include step that opened the frame
}

func (f *frame) isRoot() bool { return f.useCase == nil }

// covers reports whether AtStart steps of uc may start in f.
func (f *frame) covers(uc *model.UseCase) bool {
	return f.isRoot() || f.useCase == uc
}

func (s *session) top() *frame { return s.frames[len(s.frames)-1] }

// positionHolds reports whether the flow position of st holds in f.
func (s *session) positionHolds(st *model.Step, f *frame) bool {
	p := st.Position()
	if p.Kind() == model.Anytime {
		return true
	}
	if f.latest != nil && p.HasOrAfter(f.latest.Index()) {
		return true
	}
	return s.baseHolds(st, f)
}

func (s *session) baseHolds(st *model.Step, f *frame) bool {
	p := st.Position()
	switch p.Kind() {
	case model.AtStart:
		return f.latest == nil && f.covers(st.UseCase())
	case model.After:
		return f.latest != nil && f.latest.Index() == p.Anchor()
	case model.InsteadOf:
		// The replaced step's orAfter anchors do not count.
		return s.baseHolds(s.model.StepAt(p.Anchor()), f)
	default:
		return true
	}
}

// settledDepth returns the number of frames left once finished include
// frames are popped. It does not modify the session.
func (r *runner) settledDepth(ctx context.Context) (int, error) {
	s := r.s
	n := len(s.frames)
	for n > 1 {
		f := s.frames[n-1]
		if f.latest == nil {
			break
		}
		ok, err := r.hasSuccessor(ctx, f)
		if err != nil {
			return 0, err
		}
		if ok {
			break
		}
		n--
	}
	return n, nil
}

// settle pops include frames that cannot continue. The including frame
// then resumes after its include step.
func (r *runner) settle(ctx context.Context) error {
	s := r.s
	n, err := r.settledDepth(ctx)
	if err != nil {
		return err
	}
	for len(s.frames) > n {
		f := s.top()
		s.frames = s.frames[:len(s.frames)-1]
		s.logger.DebugContext(ctx, "include_completed",
			slog.String("use_case", f.useCase.Name()),
			slog.String("include_step", f.include.Name()),
		)
	}
	return nil
}

// hasSuccessor reports whether a flow step other than an exception handler
// could still continue f.
func (r *runner) hasSuccessor(ctx context.Context, f *frame) (bool, error) {
	s := r.s
	for _, st := range s.steps {
		if st.IsFlowless() || st.Kind() == model.KindHandler || st.Position().Kind() == model.Anytime {
			continue
		}
		if !s.positionHolds(st, f) {
			continue
		}
		ok, err := r.conditionHolds(ctx, st)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// pushInclude opens a frame for the use case included by st.
func (r *runner) pushInclude(ctx context.Context, st *model.Step) {
	s := r.s
	uc := st.IncludedUseCase()
	s.frames = append(s.frames, &frame{useCase: uc, include: st})
	s.logger.DebugContext(ctx, "include_started",
		slog.String("use_case", uc.Name()),
		slog.String("include_step", st.Name()),
		slog.Int("depth", len(s.frames)-1),
	)
}

// continueAt moves the top frame as requested by the continue step st.
func (r *runner) continueAt(st *model.Step) {
	s := r.s
	target, mode := st.ContinueTarget()
	f := s.top()
	switch mode {
	case model.ContinueAfter:
		f.latest = target
	case model.ContinueAt:
		f.latest = s.anchorBefore(target, f)
	case model.ContinueWithoutAlternativeAt:
		f.latest = s.anchorBefore(target, f)
		s.suppressed = target
	}
}

// anchorBefore returns the latest step that makes the position of st hold.
func (s *session) anchorBefore(st *model.Step, f *frame) *model.Step {
	if prev := st.PreviousStepInFlow(); prev != nil {
		return prev
	}
	p := st.Position()
	switch p.Kind() {
	case model.After:
		return s.model.StepAt(p.Anchor())
	case model.InsteadOf:
		return s.anchorBefore(s.model.StepAt(p.Anchor()), f)
	case model.AtStart:
		return nil
	default:
		return f.latest
	}
}
