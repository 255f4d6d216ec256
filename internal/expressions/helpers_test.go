package expressions

import (
	"context"

	"github.com/petrijr/reqflow/pkg/model"
)

// fakeState is a model.State with fixed content.
type fakeState struct {
	latest  *model.Step
	history []string
	vars    map[string]any
}

func (s fakeState) LatestStep() *model.Step { return s.latest }
func (s fakeState) RunStepNames() []string  { return s.history }
func (s fakeState) Vars() map[string]any    { return s.vars }

type paid struct{ Amount int }

// checkoutState returns a state whose latest step is "Customer pays".
func checkoutState(vars map[string]any) fakeState {
	m := model.NewBuilder().
		UseCase("Checkout").
		BasicFlow().
		Step("Customer adds item").System(model.Run(func(context.Context) error { return nil })).
		Step("Customer pays").On(model.TypeOf[paid]()).System(model.Consume(func(context.Context, paid) error { return nil })).
		Build()
	return fakeState{
		latest:  m.UseCase("Checkout").Step("Customer pays"),
		history: []string{"Customer adds item", "Customer pays"},
		vars:    vars,
	}
}
