package model

import "slices"

// BasicFlowName is the name of the flow created by UseCaseBuilder.BasicFlow.
const BasicFlowName = "Basic flow"

// Actor is a role that triggers steps.
type Actor struct {
	name  string
	index int
}

// Name returns the actor name.
func (a *Actor) Name() string { return a.name }

func (a *Actor) String() string { return a.name }

// Flow is an ordered sequence of steps within a use case.
type Flow struct {
	model     *Model
	index     int
	name      string
	useCase   int
	basic     bool
	position  Position
	condition Condition
	steps     []int
}

// Name returns the flow name.
func (f *Flow) Name() string { return f.name }

// IsBasic reports whether f is the use case's basic flow.
func (f *Flow) IsBasic() bool { return f.basic }

// UseCase returns the owning use case.
func (f *Flow) UseCase() *UseCase { return f.model.useCases[f.useCase] }

// Position returns the position of the flow's first step.
func (f *Flow) Position() Position { return f.position }

// Condition returns the flow condition, or nil.
func (f *Flow) Condition() Condition { return f.condition }

// Steps returns the flow steps in order.
func (f *Flow) Steps() []*Step { return f.model.stepsAt(f.steps) }

// UseCase is a named unit of system behavior composed of flows.
type UseCase struct {
	model    *Model
	index    int
	name     string
	flows    []int
	steps    []int
	flowless []int
}

// Name returns the use case name.
func (u *UseCase) Name() string { return u.name }

// Flows returns the flows in declaration order.
func (u *UseCase) Flows() []*Flow {
	out := make([]*Flow, len(u.flows))
	for i, idx := range u.flows {
		out[i] = u.model.flows[idx]
	}
	return out
}

// Flow returns the flow with the given name, or nil.
func (u *UseCase) Flow(name string) *Flow {
	for _, idx := range u.flows {
		if f := u.model.flows[idx]; f.name == name {
			return f
		}
	}
	return nil
}

// BasicFlow returns the basic flow, or nil if none was declared.
func (u *UseCase) BasicFlow() *Flow { return u.Flow(BasicFlowName) }

// Steps returns every step of the use case, flow steps and flowless steps,
// in declaration order.
func (u *UseCase) Steps() []*Step { return u.model.stepsAt(u.steps) }

// FlowlessSteps returns the flowless steps in declaration order.
func (u *UseCase) FlowlessSteps() []*Step { return u.model.stepsAt(u.flowless) }

// Step returns the step with the given name, or nil.
func (u *UseCase) Step(name string) *Step {
	for _, idx := range u.steps {
		if s := u.model.steps[idx]; s.name == name {
			return s
		}
	}
	return nil
}

// Model is an immutable graph of use cases, flows, steps and actors.
// It is safe for concurrent use by multiple runners.
type Model struct {
	useCases []*UseCase
	flows    []*Flow
	steps    []*Step
	actors   []*Actor
}

// UseCases returns the use cases in declaration order.
func (m *Model) UseCases() []*UseCase { return slices.Clone(m.useCases) }

// UseCase returns the use case with the given name, or nil.
func (m *Model) UseCase(name string) *UseCase {
	for _, u := range m.useCases {
		if u.name == name {
			return u
		}
	}
	return nil
}

// Actors returns the declared actors.
func (m *Model) Actors() []*Actor { return slices.Clone(m.actors) }

// Actor returns the actor with the given name, or nil.
func (m *Model) Actor(name string) *Actor {
	for _, a := range m.actors {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Steps returns all steps in the order the builder declared them.
func (m *Model) Steps() []*Step { return slices.Clone(m.steps) }

// StepAt returns the step with the given index, or nil when out of range.
func (m *Model) StepAt(index int) *Step {
	if index < 0 || index >= len(m.steps) {
		return nil
	}
	return m.steps[index]
}

// FlowlessSteps returns the flowless steps of all use cases.
func (m *Model) FlowlessSteps() []*Step {
	var out []*Step
	for _, s := range m.steps {
		if s.IsFlowless() {
			out = append(out, s)
		}
	}
	return out
}

func (m *Model) stepsAt(indices []int) []*Step {
	out := make([]*Step, len(indices))
	for i, idx := range indices {
		out[i] = m.steps[idx]
	}
	return out
}
