package api

import "time"

// RunEventType identifies a run history record.
type RunEventType string

const (
	RunEventStarted RunEventType = "run.started"
	RunEventStopped RunEventType = "run.stopped"

	RunEventStepStarted   RunEventType = "step.started"
	RunEventStepCompleted RunEventType = "step.completed"
	RunEventStepFailed    RunEventType = "step.failed"

	RunEventUnhandled RunEventType = "event.unhandled"
)

// RunEvent is an append-only history record for audit and debugging.
// It carries names only, never event payloads.
type RunEvent struct {
	RunnerID string
	Seq      int64
	At       time.Time
	Type     RunEventType

	// Optional context.
	UseCase string
	Flow    string
	Step    string
	Event   string

	// Small, human-oriented details (e.g. an error string).
	Detail string
}
