// Package worker provides the worker that serializes access to a reqflow
// runner.
//
// Runners are synchronous and not safe for concurrent use. A worker owns a
// single runner and consumes tasks from a task queue one at a time, so that
// events produced by many goroutines (HTTP handlers, message consumers,
// timers) reach the runner in a well-defined order.
//
// Most applications construct workers via reqflow.NewLocalRunner, which
// wires a runner, an in-memory queue and a worker goroutine together.
//
// # Worker Responsibilities
//
// A worker is responsible for:
//
//   - Pulling tasks from a task queue
//   - Handing the events of each task to its runner
//   - Reporting the outcome back to callers that wait for it
//   - Bounding task processing time when configured
//
// # Enqueue and Submit
//
// Enqueue is fire-and-forget: it returns once the task is queued. Submit
// waits for the task to be processed and returns the step that reacted to
// the last event, exactly like Runner.ReactTo. EnqueueStop stops the runner
// after every task queued before it.
//
// # Processing
//
// ProcessOne processes a single task. Callers run it in a loop from exactly
// one goroutine per runner:
//
//	for {
//		if _, err := w.ProcessOne(ctx); errors.Is(err, context.Canceled) {
//			return
//		}
//	}
//
// Reaction errors are logged and returned; they never stop the loop by
// themselves.
package worker
