package expressions

import (
	"context"
	"fmt"

	"github.com/petrijr/reqflow/pkg/model"
)

// Condition is a model.Condition backed by an expression.
type Condition struct {
	engine Engine
	source string
}

var _ model.Condition = (*Condition)(nil)

// NewCondition compiles source with engine.
func NewCondition(engine Engine, source string) (*Condition, error) {
	if err := engine.Compile(source); err != nil {
		return nil, err
	}
	return &Condition{engine: engine, source: source}, nil
}

// Evaluate runs the expression against the state of the runner.
func (c *Condition) Evaluate(ctx context.Context, s model.State) (bool, error) {
	out, err := c.engine.Evaluate(ctx, c.source, StateData(s))
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s %q returned %T", ErrNotBool, c.engine.Name(), c.source, out)
	}
	return b, nil
}

// Source returns the expression text.
func (c *Condition) Source() string { return c.source }

func (c *Condition) String() string {
	return c.engine.Name() + ": " + c.source
}
