package reqflow

import (
	"fmt"
	"sync"

	"github.com/petrijr/reqflow/internal/expressions"
	"github.com/petrijr/reqflow/pkg/model"
)

// Expression errors, for errors.Is.
var (
	ErrEmptyExpression = expressions.ErrEmptyExpression
	ErrCompile         = expressions.ErrCompile
	ErrEvaluate        = expressions.ErrEvaluate
	ErrNotBool         = expressions.ErrNotBool
)

// Shared engines; compiled programs are cached per engine.
var (
	exprEngine = expressions.NewExprEngine()
	jqEngine   = expressions.NewGoJQEngine()
	celEngine  = sync.OnceValues(expressions.NewCELEngine)
)

// ExprCondition compiles an expr-lang expression into a Condition. The
// expression sees latest (name of the latest step), history (names of the
// steps run so far) and vars (runner variables):
//
//	reqflow.ExprCondition(`latest == "Customer pays" && vars.total > 100`)
func ExprCondition(src string) (Condition, error) {
	return newCondition(exprEngine, src)
}

// CELCondition compiles a CEL expression into a Condition. Variables are
// the same as for ExprCondition.
func CELCondition(src string) (Condition, error) {
	engine, err := celEngine()
	if err != nil {
		return nil, err
	}
	return newCondition(engine, src)
}

// JQCondition compiles a jq filter into a Condition. The filter input is an
// object with the keys latest, history and vars.
func JQCondition(src string) (Condition, error) {
	return newCondition(jqEngine, src)
}

func newCondition(engine expressions.Engine, src string) (Condition, error) {
	c, err := expressions.NewCondition(engine, src)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Expr is like ExprCondition but panics with a *BuildError on invalid
// expressions, so it can be used inline in builders and recovered by Try.
func Expr(src string) Condition { return mustCondition("expr", src, ExprCondition) }

// CEL is like CELCondition but panics with a *BuildError.
func CEL(src string) Condition { return mustCondition("cel", src, CELCondition) }

// JQ is like JQCondition but panics with a *BuildError.
func JQ(src string) Condition { return mustCondition("jq", src, JQCondition) }

func mustCondition(lang, src string, compile func(string) (Condition, error)) Condition {
	c, err := compile(src)
	if err != nil {
		panic(&model.BuildError{Path: fmt.Sprintf("%s condition %q", lang, src), Err: err})
	}
	return c
}
