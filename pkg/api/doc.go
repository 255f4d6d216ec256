// Package api contains the runtime contracts of reqflow. It defines the
// Runner interface that drives a model, the hooks a runner calls around
// each reaction, and the Observer interface used for logging and metrics.
//
// Most users interact with the higher-level reqflow package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// runner itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Runners
//   - Step handlers and publishers
//   - Observability
//   - Run history records
//
// Models themselves are defined in the model package; this package only
// describes how they are executed.
//
// # Runners
//
// A Runner holds the state of one execution of a model: the steps that ran,
// the latest step and the position inside included use cases. Events handed
// to ReactTo are matched against the steps eligible in that state, and the
// best match reacts. Events no step is eligible for are ignored.
//
// Runners are synchronous and not safe for concurrent use. Callers that
// receive events from several goroutines serialize them through a single
// owner, for example the LocalRunner of the reqflow package.
//
// # Step Handlers and Publishers
//
// A StepHandler decides how the reaction of a matched step is performed.
// The default handler, RunStep, simply runs it. Custom handlers can:
//
//   - Wrap reactions in transactions or retries.
//   - Record which step is about to run, e.g. for tests.
//   - Skip the reaction altogether.
//
// A Publisher receives the events returned by reactions. Without a
// publisher, returned events are dispatched back to the same runner.
//
// # Observability
//
// The api package defines the Observer interface, which runners call on
// lifecycle transitions. Ready-made implementations are provided:
//
//   - NoopObserver, the default
//   - LoggingObserver, writing structured logs with log/slog
//   - BasicMetrics, in-memory counters and average step duration
//   - CompositeObserver, fanning out to several observers
//
// RunEvent is the record written by journals that persist run history for
// audit and debugging. It carries names only, never event payloads.
package api
