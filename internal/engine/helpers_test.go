package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/reqflow/internal/testutil"
	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

type entersText struct{ Text string }

type entersNumber struct{ N int }

type outOfBounds struct{ Index int }

func (e *outOfBounds) Error() string { return "index out of bounds" }

var noop = model.Run(func(context.Context) error { return nil })

var (
	textEvent   = model.TypeOf[entersText]()
	numberEvent = model.TypeOf[entersNumber]()
)

func varIsTrue(name string) model.Condition {
	return model.ConditionFunc(func(s model.State) bool {
		v, _ := s.Vars()[name].(bool)
		return v
	})
}

// startRunner runs m on a new runner that logs to t and records observer
// callbacks.
func startRunner(t *testing.T, m *model.Model, cfg Config) (api.Runner, *testutil.Recorder) {
	t.Helper()
	rec := &testutil.Recorder{}
	if cfg.Logger == nil {
		cfg.Logger = testutil.Logger(t)
	}
	cfg.Observer = api.NewCompositeObserver(cfg.Observer, rec)

	r := NewRunner(cfg)
	require.NoError(t, r.Run(context.Background(), m))
	return r, rec
}
