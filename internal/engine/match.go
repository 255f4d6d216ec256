package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// Tiers in which eligible steps compete for an event. Lower wins.
const (
	tierInsteadOf = iota
	tierPositioned
	tierAnytime
	tierFlowless
)

type candidate struct {
	step  *model.Step
	event any // value handed to the reaction
	rank  int
}

// rank orders eligible steps: tier first, then steps of the top frame's
// use case before steps of other use cases. Declaration order breaks ties.
func (s *session) rank(st *model.Step, f *frame) int {
	tier := tierPositioned
	switch {
	case st.IsFlowless():
		tier = tierFlowless
	case f.latest != nil && st.Position().HasOrAfter(f.latest.Index()):
		tier = tierPositioned
	case st.Position().Kind() == model.InsteadOf:
		tier = tierInsteadOf
	case st.Position().Kind() == model.Anytime:
		tier = tierAnytime
	}
	local := 0
	if !f.covers(st.UseCase()) {
		local = 1
	}
	return tier*2 + local
}

// match reports whether st can react to event before its condition is
// checked, and the value its reaction receives.
func (r *runner) match(st *model.Step, event any, f *frame) (any, bool) {
	s := r.s
	v, ok := st.EventType().Match(event)
	if !ok {
		return nil, false
	}
	if !st.Kind().Autonomous() && !st.AllowsActor(r.actor) {
		return nil, false
	}
	if st.IsFlowless() {
		return v, true
	}
	p := st.Position()
	if p.Kind() == model.InsteadOf && s.suppressed != nil && p.Anchor() == s.suppressed.Index() {
		return nil, false
	}
	if !s.positionHolds(st, f) {
		return nil, false
	}
	return v, true
}

func (r *runner) conditionHolds(ctx context.Context, st *model.Step) (bool, error) {
	ok, err := model.And(st.Condition(), st.ReactWhile()).Evaluate(ctx, r)
	if err != nil {
		return false, fmt.Errorf("%w: step %s: %w", api.ErrCondition, st, err)
	}
	return ok, nil
}

// selectStep returns the best eligible step for event in frame f, or nil.
// Conditions are only evaluated for steps that would beat the current best.
func (r *runner) selectStep(ctx context.Context, event any, f *frame) (*candidate, error) {
	var best *candidate
	for _, st := range r.s.steps {
		v, ok := r.match(st, event, f)
		if !ok {
			continue
		}
		rank := r.s.rank(st, f)
		if best != nil && rank >= best.rank {
			continue
		}
		ok, err := r.conditionHolds(ctx, st)
		if err != nil {
			return nil, err
		}
		if ok {
			best = &candidate{step: st, event: v, rank: rank}
		}
	}
	return best, nil
}

// eligible returns every eligible step for event in frame f, best first.
func (r *runner) eligible(ctx context.Context, event any, f *frame) ([]*model.Step, error) {
	var cands []candidate
	for _, st := range r.s.steps {
		v, ok := r.match(st, event, f)
		if !ok {
			continue
		}
		ok, err := r.conditionHolds(ctx, st)
		if err != nil {
			return nil, err
		}
		if ok {
			cands = append(cands, candidate{step: st, event: v, rank: r.s.rank(st, f)})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].rank < cands[j].rank })

	out := make([]*model.Step, len(cands))
	for i, c := range cands {
		out[i] = c.step
	}
	return out, nil
}
