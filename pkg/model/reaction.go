package model

import (
	"context"
	"fmt"
	"reflect"
)

// Reaction is the system reaction of a step. It receives the matched event
// and returns events to publish. A non-nil error is dispatched to the model
// as an event so that handler steps bound with ErrorOf can catch it.
type Reaction func(ctx context.Context, event any) ([]any, error)

// Consume adapts a typed function that publishes nothing.
func Consume[E any](fn func(ctx context.Context, event E) error) Reaction {
	return func(ctx context.Context, event any) ([]any, error) {
		e, ok := event.(E)
		if !ok {
			return nil, mismatch[E](event)
		}
		return nil, fn(ctx, e)
	}
}

// Publish adapts a typed function whose results are published.
func Publish[E any](fn func(ctx context.Context, event E) ([]any, error)) Reaction {
	return func(ctx context.Context, event any) ([]any, error) {
		e, ok := event.(E)
		if !ok {
			return nil, mismatch[E](event)
		}
		return fn(ctx, e)
	}
}

// Run adapts a function that ignores the event. Use it for autonomous
// system steps.
func Run(fn func(ctx context.Context) error) Reaction {
	return func(ctx context.Context, _ any) ([]any, error) {
		return nil, fn(ctx)
	}
}

// Supply adapts a function that ignores the event and publishes results.
func Supply(fn func(ctx context.Context) ([]any, error)) Reaction {
	return func(ctx context.Context, _ any) ([]any, error) {
		return fn(ctx)
	}
}

func mismatch[E any](event any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrEventMismatch, reflect.TypeFor[E](), event)
}
