package engine

import (
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// DefaultMaxChainDepth bounds the reactions triggered by a single event.
const DefaultMaxChainDepth = 1000

// Config describes how to construct a runner.
// Only used inside this module; external callers use the reqflow options.
type Config struct {
	// ID identifies the runner. Defaults to a random UUID.
	ID string

	Logger      *slog.Logger
	Observer    api.Observer
	StepHandler api.StepHandler
	Publisher   api.Publisher

	// Vars are the initial runner variables, copied on construction.
	Vars map[string]any

	// MaxChainDepth limits the number of reactions per dispatched event.
	// Zero means DefaultMaxChainDepth.
	MaxChainDepth int

	// Actor restricts the runner to steps open to it. Nil means any actor.
	Actor *model.Actor
}

func (c Config) withDefaults() Config {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Observer == nil {
		c.Observer = api.NoopObserver{}
	}
	if c.StepHandler == nil {
		c.StepHandler = api.RunStep
	}
	if c.MaxChainDepth <= 0 {
		c.MaxChainDepth = DefaultMaxChainDepth
	}
	c.Vars = maps.Clone(c.Vars)
	if c.Vars == nil {
		c.Vars = make(map[string]any)
	}
	c.Logger = c.Logger.With(slog.String("runner_id", c.ID))
	return c
}
