package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	history []string
	vars    map[string]any
}

func (s fakeState) LatestStep() *Step      { return nil }
func (s fakeState) RunStepNames() []string { return s.history }
func (s fakeState) Vars() map[string]any   { return s.vars }

func TestConditions_Compose(t *testing.T) {
	ctx := context.Background()
	s := fakeState{vars: map[string]any{"vip": true}}

	vip := ConditionFunc(func(s State) bool { return s.Vars()["vip"] == true })

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"always", Always, true},
		{"never", Never, false},
		{"not never", Not(Never), true},
		{"and", And(Always, vip), true},
		{"and with never", And(vip, Never), false},
		{"and skips nil", And(nil, vip, nil), true},
		{"empty and", And(), true},
		{"or", Or(Never, vip), true},
		{"or all false", Or(Never, Not(vip)), false},
		{"empty or", Or(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.Evaluate(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditions_PropagateErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	failing := EvalFunc(func(context.Context, State) (bool, error) { return false, boom })

	for name, cond := range map[string]Condition{
		"not": Not(failing),
		"and": And(Always, failing),
		"or":  Or(Never, failing),
	} {
		t.Run(name, func(t *testing.T) {
			ok, err := cond.Evaluate(ctx, fakeState{})
			assert.ErrorIs(t, err, boom)
			assert.False(t, ok)
		})
	}
}

func TestAnd_ShortCircuits(t *testing.T) {
	called := false
	spy := ConditionFunc(func(State) bool { called = true; return true })

	ok, err := And(Never, spy).Evaluate(context.Background(), fakeState{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, called)
}
