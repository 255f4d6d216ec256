package model

import "context"

// State is the read-only view of a runner that conditions evaluate against.
type State interface {
	// LatestStep returns the most recently executed step, or nil.
	LatestStep() *Step
	// RunStepNames returns the names of executed steps, oldest first.
	RunStepNames() []string
	// Vars returns the runner's variables. Callers must not modify the map.
	Vars() map[string]any
}

// Condition is a side-effect free predicate over runner state. Runners may
// evaluate a condition several times while matching a single event.
type Condition interface {
	Evaluate(ctx context.Context, s State) (bool, error)
}

// ConditionFunc adapts a plain predicate to Condition.
type ConditionFunc func(s State) bool

func (f ConditionFunc) Evaluate(_ context.Context, s State) (bool, error) {
	return f(s), nil
}

// EvalFunc adapts a predicate that can fail to Condition.
type EvalFunc func(ctx context.Context, s State) (bool, error)

func (f EvalFunc) Evaluate(ctx context.Context, s State) (bool, error) {
	return f(ctx, s)
}

var (
	// Always holds.
	Always Condition = ConditionFunc(func(State) bool { return true })
	// Never holds.
	Never Condition = ConditionFunc(func(State) bool { return false })
)

// Not negates c.
func Not(c Condition) Condition {
	return EvalFunc(func(ctx context.Context, s State) (bool, error) {
		ok, err := c.Evaluate(ctx, s)
		return !ok && err == nil, err
	})
}

// And holds when every condition holds. Nil conditions are skipped and
// evaluation stops at the first false or failing condition.
func And(conds ...Condition) Condition {
	conds = compact(conds)
	if len(conds) == 1 {
		return conds[0]
	}
	return EvalFunc(func(ctx context.Context, s State) (bool, error) {
		for _, c := range conds {
			ok, err := c.Evaluate(ctx, s)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}

// Or holds when any condition holds. Nil conditions are skipped.
func Or(conds ...Condition) Condition {
	conds = compact(conds)
	if len(conds) == 1 {
		return conds[0]
	}
	return EvalFunc(func(ctx context.Context, s State) (bool, error) {
		for _, c := range conds {
			ok, err := c.Evaluate(ctx, s)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	})
}

func compact(conds []Condition) []Condition {
	out := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
