package model

import (
	"fmt"
	"slices"
)

// Builder assembles a Model. Builder methods panic with a *BuildError on
// misuse; wrap construction in Try to get an error instead.
//
// Use cases, flows and steps can only reference elements declared before
// them, so the order of builder calls is also the declaration order used to
// break ties at runtime.
type Builder struct {
	m       *Model
	pending *StepBuilder
	built   bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{m: &Model{}}
}

// Actor returns the actor with the given name, declaring it if needed.
func (b *Builder) Actor(name string) *Actor {
	b.checkOpen()
	if name == "" {
		buildPanic("actor", ErrEmptyName)
	}
	if a := b.m.Actor(name); a != nil {
		return a
	}
	a := &Actor{name: name, index: len(b.m.actors)}
	b.m.actors = append(b.m.actors, a)
	return a
}

// UseCase declares a new use case.
func (b *Builder) UseCase(name string) *UseCaseBuilder {
	b.flush()
	if name == "" {
		buildPanic("use case", ErrEmptyName)
	}
	if b.m.UseCase(name) != nil {
		buildPanic(useCasePath(name), ErrDuplicateName)
	}
	uc := &UseCase{model: b.m, index: len(b.m.useCases), name: name}
	b.m.useCases = append(b.m.useCases, uc)
	return &UseCaseBuilder{b: b, uc: uc}
}

// Build freezes and returns the model. The builder cannot be used afterwards.
func (b *Builder) Build() *Model {
	b.flush()
	b.built = true
	return b.m
}

func (b *Builder) checkOpen() {
	if b.built {
		buildPanic("", ErrAlreadyBuilt)
	}
}

func (b *Builder) flush() {
	b.checkOpen()
	if b.pending != nil {
		p := b.pending
		b.pending = nil
		p.finish()
	}
}

func (b *Builder) addStep(uc *UseCase, s *Step) {
	s.model = b.m
	s.index = len(b.m.steps)
	s.useCase = uc.index
	b.m.steps = append(b.m.steps, s)
	uc.steps = append(uc.steps, s.index)
}

// UseCaseBuilder declares the flows and flowless steps of a use case.
type UseCaseBuilder struct {
	b  *Builder
	uc *UseCase
}

// BasicFlow declares the basic flow. It starts at the beginning of the use
// case unless positioned otherwise.
func (u *UseCaseBuilder) BasicFlow() *FlowBuilder {
	return u.flow(BasicFlowName, true)
}

// Flow declares an alternative flow. Without a position it starts at the
// beginning of the use case; with only a condition it may start anytime.
func (u *UseCaseBuilder) Flow(name string) *FlowBuilder {
	return u.flow(name, false)
}

func (u *UseCaseBuilder) flow(name string, basic bool) *FlowBuilder {
	u.b.flush()
	if name == "" {
		buildPanic(useCasePath(u.uc.name)+" / flow", ErrEmptyName)
	}
	if u.uc.Flow(name) != nil {
		buildPanic(flowPath(u.uc, name), ErrDuplicateName)
	}
	m := u.b.m
	f := &Flow{
		model:    m,
		index:    len(m.flows),
		name:     name,
		useCase:  u.uc.index,
		basic:    basic,
		position: atStart(),
	}
	m.flows = append(m.flows, f)
	u.uc.flows = append(u.uc.flows, f.index)
	return &FlowBuilder{u: u, f: f}
}

// Handles starts a flowless step reacting to events of type et.
func (u *UseCaseBuilder) Handles(et EventType) *FlowlessStepBuilder {
	return u.flowless().Handles(et)
}

// When starts a flowless step that only reacts while cond holds.
func (u *UseCaseBuilder) When(cond Condition) *FlowlessStepBuilder {
	return u.flowless().When(cond)
}

func (u *UseCaseBuilder) flowless() *FlowlessStepBuilder {
	u.b.flush()
	return &FlowlessStepBuilder{u: u}
}

// UseCase declares the next use case.
func (u *UseCaseBuilder) UseCase(name string) *UseCaseBuilder { return u.b.UseCase(name) }

// Build freezes and returns the model.
func (u *UseCaseBuilder) Build() *Model { return u.b.Build() }

// FlowBuilder positions a flow and declares its steps.
type FlowBuilder struct {
	u          *UseCaseBuilder
	f          *Flow
	positioned bool
}

// After starts the flow right after the named step of the same use case.
func (f *FlowBuilder) After(step string) *FlowBuilder {
	target := f.lookup(f.u.uc, step)
	return f.position(after(target.index))
}

// AfterIn starts the flow right after a step of another, already declared
// use case.
func (f *FlowBuilder) AfterIn(useCase, step string) *FlowBuilder {
	uc := f.u.b.m.UseCase(useCase)
	if uc == nil {
		buildPanic(flowPath(f.u.uc, f.f.name), fmt.Errorf("%w: %q", ErrUnknownUseCase, useCase))
	}
	target := f.lookup(uc, step)
	return f.position(after(target.index))
}

// InsteadOf lets the flow preempt the named step: the flow's first step is
// eligible exactly when the replaced step would be.
func (f *FlowBuilder) InsteadOf(step string) *FlowBuilder {
	target := f.lookup(f.u.uc, step)
	return f.position(insteadOf(target.index))
}

// Anytime lets the flow start regardless of what ran before.
func (f *FlowBuilder) Anytime() *FlowBuilder { return f.position(anytime()) }

// AtStart makes the flow start at the beginning of the use case.
func (f *FlowBuilder) AtStart() *FlowBuilder { return f.position(atStart()) }

// When gates the flow's first step with cond.
func (f *FlowBuilder) When(cond Condition) *FlowBuilder {
	f.u.b.checkOpen()
	if cond == nil {
		buildPanic(flowPath(f.u.uc, f.f.name), ErrNilCondition)
	}
	if len(f.f.steps) > 0 {
		buildPanic(flowPath(f.u.uc, f.f.name), ErrInvalidPosition)
	}
	f.f.condition = And(f.f.condition, cond)
	return f
}

func (f *FlowBuilder) position(p Position) *FlowBuilder {
	f.u.b.checkOpen()
	if f.positioned || len(f.f.steps) > 0 {
		buildPanic(flowPath(f.u.uc, f.f.name), ErrInvalidPosition)
	}
	f.f.position = p
	f.positioned = true
	return f
}

func (f *FlowBuilder) lookup(uc *UseCase, name string) *Step {
	s := uc.Step(name)
	if s == nil || s.IsFlowless() {
		buildPanic(flowPath(f.u.uc, f.f.name), fmt.Errorf("%w: %q in use case %q", ErrUnknownStep, name, uc.name))
	}
	return s
}

// Step declares the next step of the flow.
func (f *FlowBuilder) Step(name string) *StepBuilder {
	b := f.u.b
	b.flush()
	uc := f.u.uc
	if name == "" {
		buildPanic(flowPath(uc, f.f.name)+" / step", ErrEmptyName)
	}
	if uc.Step(name) != nil {
		buildPanic(stepPath(uc, f.f.name, name), ErrDuplicateName)
	}

	s := &Step{
		name:       name,
		flow:       f.f.index,
		prev:       -1,
		include:    -1,
		continueTo: -1,
	}
	if n := len(f.f.steps); n == 0 {
		if !f.positioned && f.f.condition != nil && !f.f.basic {
			f.f.position = anytime()
		}
		f.positioned = true
		s.position = f.f.position
		s.condition = f.f.condition
	} else {
		s.prev = f.f.steps[n-1]
		s.position = after(s.prev)
	}
	b.addStep(uc, s)
	f.f.steps = append(f.f.steps, s.index)

	sb := &StepBuilder{fb: f, s: s}
	b.pending = sb
	return sb
}

// Flow declares another flow of the same use case.
func (f *FlowBuilder) Flow(name string) *FlowBuilder { return f.u.Flow(name) }

// UseCase declares the next use case.
func (f *FlowBuilder) UseCase(name string) *UseCaseBuilder { return f.u.b.UseCase(name) }

// Build freezes and returns the model.
func (f *FlowBuilder) Build() *Model { return f.u.b.Build() }

// StepBuilder configures a flow step. A step needs exactly one of System,
// IncludesUseCase or a Continues* call.
type StepBuilder struct {
	fb *FlowBuilder
	s  *Step
}

func (sb *StepBuilder) path() string {
	return stepPath(sb.fb.u.uc, sb.fb.f.name, sb.s.name)
}

// On binds the step to events of type et. Steps bound to an ErrorOf type
// handle errors raised by system reactions.
func (sb *StepBuilder) On(et EventType) *StepBuilder {
	sb.fb.u.b.checkOpen()
	if et.match == nil || et.IsSystem() {
		buildPanic(sb.path(), ErrInvalidEvent)
	}
	sb.s.event = et
	return sb
}

// As restricts the step to the given actors.
func (sb *StepBuilder) As(actors ...*Actor) *StepBuilder {
	sb.fb.u.b.checkOpen()
	for _, a := range actors {
		if a == nil {
			buildPanic(sb.path(), fmt.Errorf("%w: nil actor", ErrEmptyName))
		}
		if !slices.Contains(sb.s.actors, a) {
			sb.s.actors = append(sb.s.actors, a)
		}
	}
	return sb
}

// When adds a precondition to the step.
func (sb *StepBuilder) When(cond Condition) *StepBuilder {
	sb.fb.u.b.checkOpen()
	if cond == nil {
		buildPanic(sb.path(), ErrNilCondition)
	}
	sb.s.condition = And(sb.s.condition, cond)
	return sb
}

// ReactWhile lets the step react repeatedly, right after itself, as long as
// cond holds. The step is only eligible while cond holds.
func (sb *StepBuilder) ReactWhile(cond Condition) *StepBuilder {
	sb.fb.u.b.checkOpen()
	if cond == nil {
		buildPanic(sb.path(), ErrNilCondition)
	}
	sb.s.loop = cond
	sb.s.position = sb.s.position.withOrAfter(sb.s.index)
	return sb
}

// System sets the system reaction. A step without an event binding reacts
// autonomously.
func (sb *StepBuilder) System(r Reaction) *StepBuilder {
	sb.fb.u.b.checkOpen()
	if r == nil {
		buildPanic(sb.path(), ErrMissingReaction)
	}
	sb.checkNoReaction()
	sb.s.reaction = r
	return sb
}

// IncludesUseCase makes the step transfer control to an already declared
// use case. The including flow continues once the included one completes.
func (sb *StepBuilder) IncludesUseCase(name string) *StepBuilder {
	sb.fb.u.b.checkOpen()
	sb.checkNoReaction()
	uc := sb.fb.u.b.m.UseCase(name)
	if uc == nil {
		buildPanic(sb.path(), fmt.Errorf("%w: %q", ErrUnknownUseCase, name))
	}
	if uc == sb.fb.u.uc {
		buildPanic(sb.path(), fmt.Errorf("%w: %q cannot include itself", ErrUnknownUseCase, name))
	}
	sb.s.include = uc.index
	sb.s.kind = KindInclude
	return sb
}

// ContinuesAfter resumes the use case as if the named step had just run.
func (sb *StepBuilder) ContinuesAfter(step string) *StepBuilder {
	return sb.continues(step, ContinueAfter)
}

// ContinuesAt resumes the use case right before the named step.
func (sb *StepBuilder) ContinuesAt(step string) *StepBuilder {
	return sb.continues(step, ContinueAt)
}

// ContinuesWithoutAlternativeAt resumes right before the named step and
// keeps InsteadOf alternatives of that step from preempting it.
func (sb *StepBuilder) ContinuesWithoutAlternativeAt(step string) *StepBuilder {
	return sb.continues(step, ContinueWithoutAlternativeAt)
}

func (sb *StepBuilder) continues(step string, mode ContinueMode) *StepBuilder {
	sb.fb.u.b.checkOpen()
	sb.checkNoReaction()
	target := sb.fb.u.uc.Step(step)
	if target == nil || target.IsFlowless() {
		buildPanic(sb.path(), fmt.Errorf("%w: %q", ErrUnknownStep, step))
	}
	sb.s.continueTo = target.index
	sb.s.continueMode = mode
	sb.s.kind = KindContinue
	return sb
}

func (sb *StepBuilder) checkNoReaction() {
	if sb.s.reaction != nil || sb.s.include >= 0 || sb.s.continueTo >= 0 {
		buildPanic(sb.path(), ErrReactionSet)
	}
}

func (sb *StepBuilder) finish() {
	s := sb.s
	switch {
	case s.include >= 0 || s.continueTo >= 0:
		if s.event.match != nil {
			buildPanic(sb.path(), fmt.Errorf("%w: %s steps react autonomously", ErrInvalidEvent, s.kind))
		}
		s.event = systemEventType()
	case s.reaction == nil:
		buildPanic(sb.path(), ErrMissingReaction)
	case s.event.match == nil:
		s.kind = KindSystem
		s.event = systemEventType()
	case s.event.IsError():
		s.kind = KindHandler
	default:
		s.kind = KindUser
	}
}

// Step declares the next step of the same flow.
func (sb *StepBuilder) Step(name string) *StepBuilder { return sb.fb.Step(name) }

// Flow declares another flow of the same use case.
func (sb *StepBuilder) Flow(name string) *FlowBuilder { return sb.fb.u.Flow(name) }

// UseCase declares the next use case.
func (sb *StepBuilder) UseCase(name string) *UseCaseBuilder { return sb.fb.u.b.UseCase(name) }

// Build freezes and returns the model.
func (sb *StepBuilder) Build() *Model { return sb.fb.u.b.Build() }

// FlowlessStepBuilder configures a step that belongs to no flow. Flowless
// steps are named S1, S2, ... within their use case.
type FlowlessStepBuilder struct {
	u      *UseCaseBuilder
	event  EventType
	cond   Condition
	actors []*Actor
}

// Handles binds the step to events of type et.
func (fb *FlowlessStepBuilder) Handles(et EventType) *FlowlessStepBuilder {
	fb.u.b.checkOpen()
	if et.match == nil || et.IsSystem() {
		buildPanic(useCasePath(fb.u.uc.name)+" / flowless step", ErrInvalidEvent)
	}
	fb.event = et
	return fb
}

// When adds a precondition.
func (fb *FlowlessStepBuilder) When(cond Condition) *FlowlessStepBuilder {
	fb.u.b.checkOpen()
	if cond == nil {
		buildPanic(useCasePath(fb.u.uc.name)+" / flowless step", ErrNilCondition)
	}
	fb.cond = And(fb.cond, cond)
	return fb
}

// As restricts the step to the given actors.
func (fb *FlowlessStepBuilder) As(actors ...*Actor) *FlowlessStepBuilder {
	fb.u.b.checkOpen()
	for _, a := range actors {
		if a != nil && !slices.Contains(fb.actors, a) {
			fb.actors = append(fb.actors, a)
		}
	}
	return fb
}

// With sets the reaction and completes the step. Without Handles the step
// reacts autonomously whenever its condition holds.
func (fb *FlowlessStepBuilder) With(r Reaction) *UseCaseBuilder {
	b := fb.u.b
	b.checkOpen()
	uc := fb.u.uc
	if r == nil {
		buildPanic(useCasePath(uc.name)+" / flowless step", ErrMissingReaction)
	}

	n := len(uc.flowless) + 1
	for uc.Step(fmt.Sprintf("S%d", n)) != nil {
		n++
	}
	s := &Step{
		name:       fmt.Sprintf("S%d", n),
		flow:       -1,
		prev:       -1,
		position:   anytime(),
		event:      fb.event,
		condition:  fb.cond,
		actors:     fb.actors,
		reaction:   r,
		include:    -1,
		continueTo: -1,
	}
	switch {
	case s.event.match == nil:
		s.kind = KindSystem
		s.event = systemEventType()
	case s.event.IsError():
		s.kind = KindHandler
	default:
		s.kind = KindUser
	}
	b.addStep(uc, s)
	uc.flowless = append(uc.flowless, s.index)
	return fb.u
}

func useCasePath(name string) string {
	return fmt.Sprintf("use case %q", name)
}

func flowPath(uc *UseCase, flow string) string {
	return fmt.Sprintf("use case %q / flow %q", uc.name, flow)
}

func stepPath(uc *UseCase, flow, step string) string {
	return fmt.Sprintf("use case %q / flow %q / step %q", uc.name, flow, step)
}
