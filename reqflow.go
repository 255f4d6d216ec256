package reqflow

import (
	"context"
	"log/slog"
	"maps"

	"github.com/petrijr/reqflow/internal/engine"
	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// Re-export key types so users don't need to dig into pkg/model and pkg/api.

type (
	Model         = model.Model
	UseCase       = model.UseCase
	Flow          = model.Flow
	Step          = model.Step
	Actor         = model.Actor
	Builder       = model.Builder
	BuildError    = model.BuildError
	EventType     = model.EventType
	Reaction      = model.Reaction
	Condition     = model.Condition
	ConditionFunc = model.ConditionFunc
	EvalFunc      = model.EvalFunc
	State         = model.State

	Runner               = api.Runner
	StepToBeRun          = api.StepToBeRun
	StepHandler          = api.StepHandler
	Publisher            = api.Publisher
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
	RunEvent             = api.RunEvent
	RunEventType         = api.RunEventType
)

// Re-export errors so callers can use errors.Is without importing pkg/api.

var (
	ErrNilModel     = api.ErrNilModel
	ErrCondition    = api.ErrCondition
	ErrChainTooDeep = api.ErrChainTooDeep

	ErrEmptyName       = model.ErrEmptyName
	ErrDuplicateName   = model.ErrDuplicateName
	ErrUnknownStep     = model.ErrUnknownStep
	ErrUnknownUseCase  = model.ErrUnknownUseCase
	ErrMissingReaction = model.ErrMissingReaction
	ErrInvalidPosition = model.ErrInvalidPosition
	ErrInvalidEvent    = model.ErrInvalidEvent
	ErrEventMismatch   = model.ErrEventMismatch
)

// Re-export model helpers.

var (
	NewBuilder = model.NewBuilder
	Try        = model.Try
	Always     = model.Always
	Never      = model.Never
	Not        = model.Not
	And        = model.And
	Or         = model.Or
	Run        = model.Run
	Supply     = model.Supply
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	RunStep              = api.RunStep
)

// TypeOf returns an EventType matching events assignable to T.
func TypeOf[T any]() EventType { return model.TypeOf[T]() }

// AnyEvent returns an EventType matching every event that is not an error.
func AnyEvent() EventType { return model.AnyEvent() }

// ErrorOf returns an EventType matching errors of type T raised by reactions.
func ErrorOf[T error]() EventType { return model.ErrorOf[T]() }

// Consume adapts a typed function that publishes nothing to a Reaction.
func Consume[E any](fn func(ctx context.Context, event E) error) Reaction {
	return model.Consume(fn)
}

// Publish adapts a typed function returning follow-up events to a Reaction.
func Publish[E any](fn func(ctx context.Context, event E) ([]any, error)) Reaction {
	return model.Publish(fn)
}

// Option configures a runner created by NewRunner.
type Option func(*engine.Config)

// WithID sets the runner id. Defaults to a random UUID.
func WithID(id string) Option {
	return func(c *engine.Config) { c.ID = id }
}

// WithLogger sets the logger used for runner debug logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engine.Config) { c.Logger = logger }
}

// WithObserver adds an observer. Several observers are combined with
// NewCompositeObserver.
func WithObserver(obs Observer) Option {
	return func(c *engine.Config) {
		if c.Observer == nil {
			c.Observer = obs
			return
		}
		c.Observer = api.NewCompositeObserver(c.Observer, obs)
	}
}

// WithStepHandler replaces the default RunStep handler.
func WithStepHandler(h StepHandler) Option {
	return func(c *engine.Config) { c.StepHandler = h }
}

// WithPublisher sends events returned by reactions to p instead of
// dispatching them back to the runner.
func WithPublisher(p Publisher) Option {
	return func(c *engine.Config) { c.Publisher = p }
}

// WithVariables sets initial runner variables, visible to conditions.
func WithVariables(vars map[string]any) Option {
	return func(c *engine.Config) {
		if c.Vars == nil {
			c.Vars = make(map[string]any, len(vars))
		}
		maps.Copy(c.Vars, vars)
	}
}

// WithVariable sets a single initial runner variable.
func WithVariable(name string, value any) Option {
	return WithVariables(map[string]any{name: value})
}

// WithMaxChainDepth limits the reactions triggered by a single event,
// including reactions to published events and autonomous steps.
func WithMaxChainDepth(n int) Option {
	return func(c *engine.Config) { c.MaxChainDepth = n }
}

// WithActor restricts the runner to steps open to actor, like Runner.As.
func WithActor(actor *Actor) Option {
	return func(c *engine.Config) { c.Actor = actor }
}

// NewRunner returns a synchronous, in-process runner. Call Run with a model
// before reacting to events.
func NewRunner(opts ...Option) Runner {
	return engine.NewRunner(newConfig(opts))
}

func newConfig(opts []Option) engine.Config {
	var cfg engine.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func loggerOf(cfg engine.Config) *slog.Logger {
	if cfg.Logger == nil {
		return slog.Default()
	}
	return cfg.Logger
}
