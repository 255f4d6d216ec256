package model

import (
	"errors"
	"reflect"
)

type eventKind int

const (
	kindEvent eventKind = iota
	kindError
	kindSystem
)

// EventType binds a step to the events it reacts to. Build one with TypeOf or
// ErrorOf; the zero value matches nothing.
type EventType struct {
	name  string
	typ   reflect.Type
	kind  eventKind
	match func(event any) (any, bool)
}

// TypeOf returns an EventType matching every event assignable to T. When T is
// an interface, every implementation matches.
func TypeOf[T any]() EventType {
	typ := reflect.TypeFor[T]()
	return EventType{
		name: typ.String(),
		typ:  typ,
		kind: kindEvent,
		match: func(event any) (any, bool) {
			if IsSystemEvent(event) {
				return nil, false
			}
			v, ok := event.(T)
			return v, ok
		},
	}
}

// ErrorOf returns an EventType matching errors raised by system reactions.
// Matching uses errors.As, so wrapped errors match too, and the reaction
// receives the unwrapped T.
func ErrorOf[T error]() EventType {
	typ := reflect.TypeFor[T]()
	return EventType{
		name: typ.String(),
		typ:  typ,
		kind: kindError,
		match: func(event any) (any, bool) {
			err, ok := event.(error)
			if !ok {
				return nil, false
			}
			var target T
			if errors.As(err, &target) {
				return target, true
			}
			return nil, false
		},
	}
}

// AnyEvent returns an EventType matching every event except errors raised
// by reactions.
func AnyEvent() EventType {
	return EventType{
		name: "any",
		typ:  reflect.TypeFor[any](),
		kind: kindEvent,
		match: func(event any) (any, bool) {
			if event == nil || IsSystemEvent(event) {
				return nil, false
			}
			if _, ok := event.(error); ok {
				return nil, false
			}
			return event, true
		},
	}
}

func systemEventType() EventType {
	return EventType{
		name: "system",
		kind: kindSystem,
		match: func(event any) (any, bool) {
			return event, IsSystemEvent(event)
		},
	}
}

// Name returns the Go type name the event type was built from, or "system"
// for autonomous steps.
func (t EventType) Name() string { return t.name }

// Type returns the reflected Go type; nil for autonomous steps.
func (t EventType) Type() reflect.Type { return t.typ }

// IsError reports whether the event type was built with ErrorOf.
func (t EventType) IsError() bool { return t.kind == kindError }

// IsSystem reports whether steps bound to t react autonomously.
func (t EventType) IsSystem() bool { return t.kind == kindSystem }

// Match reports whether event matches t. The returned value is what the
// step's reaction receives.
func (t EventType) Match(event any) (any, bool) {
	if t.match == nil {
		return nil, false
	}
	return t.match(event)
}

func (t EventType) String() string { return t.name }

type systemEvent struct{}

// SystemEvent returns the event runners dispatch to trigger autonomous
// system steps.
func SystemEvent() any { return systemEvent{} }

// IsSystemEvent reports whether event is the value returned by SystemEvent.
func IsSystemEvent(event any) bool {
	_, ok := event.(systemEvent)
	return ok
}
