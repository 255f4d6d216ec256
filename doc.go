// Package reqflow lets Go programs be driven by a model of their use cases.
//
// Behavior is described as use cases made of flows made of steps, the way
// requirements are written down. A runner then matches incoming events
// against the steps of the model and lets the best eligible step react.
// The model is the single source of truth: it is executable, it can be
// exported as documentation, and every reaction can be traced back to the
// step that caused it.
//
// # Core Concepts
//
// The reqflow programming model is intentionally small:
//
//  1. Builder
//  2. Steps and reactions
//  3. Runner
//  4. Conditions
//  5. LocalRunner
//
// # Builder
//
// Builder provides the fluent API used to declare a model. It supports:
//
//   - Basic flows, where each step follows the previous one
//   - Alternative flows that start after, instead of, or at any time
//     relative to other steps
//   - Flowless steps that react whenever their condition holds
//   - Use case inclusion and continuation (ContinuesAt, ContinuesAfter,
//     ContinuesWithoutAlternativeAt)
//   - Exception handling with ErrorOf
//   - Actors restricting who may trigger a step
//
// Example:
//
//	m := reqflow.NewBuilder().
//	    UseCase("Checkout").
//	    BasicFlow().
//	    Step("Customer adds item").On(reqflow.TypeOf[AddItem]()).System(addItem).
//	    Step("Customer pays").On(reqflow.TypeOf[Pay]()).System(pay).
//	    Step("System confirms").System(confirm).
//	    Flow("Payment failed").After("Customer pays").
//	    Step("Handle failure").On(reqflow.ErrorOf[*PaymentError]()).System(apologize).
//	    Build()
//
// Invalid models make Build panic with a *BuildError. Wrap the declaration
// in Try to receive the error instead.
//
// # Steps and Reactions
//
// A step names the event type it handles with On. Steps without an event
// type are system steps, which react on their own as soon as they become
// eligible. A Reaction receives the event and may return follow-up events,
// which are dispatched back to the runner:
//
//	type Reaction func(ctx context.Context, event any) ([]any, error)
//
// Consume, Publish, Run and Supply adapt typed functions to reactions.
// WithRetry and Retry wrap a reaction in a retry policy.
//
// # Runner
//
// A runner holds the state of one execution: the latest step, the history
// of step names and the stack of included use cases. Create one with
// NewRunner, start it with Run and feed it events with ReactTo:
//
//	runner := reqflow.NewRunner(reqflow.WithLogger(logger))
//	_ = runner.Run(ctx, m)
//	step, err := runner.ReactTo(ctx, AddItem{SKU: "42"})
//
// When several steps are eligible, alternatives that replace a step win over
// positioned steps, which win over anytime steps, which win over flowless
// steps. Events no step is eligible for are ignored. Runners are not safe
// for concurrent use.
//
// Observers (WithObserver) see every run start, step and unhandled event.
// A Journal is an observer that writes these as RunEvents to an EventStore
// such as SQLite or Postgres.
//
// # Conditions
//
// Conditions decide whether a step or flow may react. They are plain Go
// (ConditionFunc, EvalFunc) or expressions compiled with ExprCondition,
// CELCondition or JQCondition, which see the latest step, the history and
// the runner variables:
//
//	Step("Apply discount").When(reqflow.Expr(`vars.total > 100`))
//
// # LocalRunner
//
// LocalRunner puts a runner behind an in-memory queue and a single worker
// goroutine so that events can be sent from any goroutine, synchronously
// with ReactTo or asynchronously with ReactToAsync.
//
// For more, see the packages under pkg/ and the /examples directory.
package reqflow
