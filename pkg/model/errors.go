package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for model definition problems. Builders panic with a
// *BuildError wrapping one of these.
var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrUnknownStep     = errors.New("unknown step")
	ErrUnknownUseCase  = errors.New("unknown use case")
	ErrMissingReaction = errors.New("step has no reaction")
	ErrNilCondition    = errors.New("condition must not be nil")
	ErrInvalidPosition = errors.New("flow position and condition must be set before the first step")
	ErrInvalidEvent    = errors.New("invalid event binding")
	ErrReactionSet     = errors.New("step already has a reaction")
	ErrAlreadyBuilt    = errors.New("model already built")
)

// ErrEventMismatch is returned by typed reaction adapters when the event
// handed to them is not of the expected type.
var ErrEventMismatch = errors.New("event type mismatch")

// BuildError describes a misuse of the model builders. Path locates the
// offending element, e.g. `use case "Checkout" / flow "Basic flow" / step "S1"`.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return "reqflow: " + e.Err.Error()
	}
	return fmt.Sprintf("reqflow: %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Try runs build and converts a builder panic into an error. Panics that are
// not caused by builder misuse are re-raised.
//
//	m, err := model.Try(func() *model.Model {
//		return model.NewBuilder().UseCase("Greet").BasicFlow().Step("Hi").System(r).Build()
//	})
func Try(build func() *Model) (m *Model, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			be, ok := rec.(*BuildError)
			if !ok {
				panic(rec)
			}
			m, err = nil, be
		}
	}()
	return build(), nil
}

func buildPanic(path string, err error) {
	panic(&BuildError{Path: path, Err: err})
}
