// Package expressions evaluates step conditions written as expressions.
// Three engines are available: Expr, CEL and jq. Each sees the runner state
// as the variables latest (name of the latest step, "" before the first
// step), history (executed step names, oldest first) and vars (runner
// variables).
package expressions

import (
	"context"
	"errors"

	"github.com/petrijr/reqflow/pkg/model"
)

var (
	ErrEmptyExpression = errors.New("empty expression")
	ErrCompile         = errors.New("expression does not compile")
	ErrEvaluate        = errors.New("expression evaluation failed")
	ErrNotBool         = errors.New("condition expression did not return a bool")
)

// Engine evaluates expressions against a data map.
type Engine interface {
	Name() string
	// Compile checks expression and caches the compiled program.
	Compile(expression string) error
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// StateData exposes runner state to expressions.
func StateData(s model.State) map[string]any {
	latest := ""
	if l := s.LatestStep(); l != nil {
		latest = l.Name()
	}
	history := s.RunStepNames()
	if history == nil {
		history = []string{}
	}
	vars := s.Vars()
	if vars == nil {
		vars = map[string]any{}
	}
	return map[string]any{
		"latest":  latest,
		"history": history,
		"vars":    vars,
	}
}
