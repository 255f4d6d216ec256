package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/reqflow/internal/engine"
	"github.com/petrijr/reqflow/internal/testutil"
	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

type cardEntered struct{}

type voucher struct{}

var errDeclined = errors.New("declined")

// runCheckout runs a model with a successful and a failing step, sends one
// unhandled event and stops the runner.
func runCheckout(t *testing.T, obs api.Observer) {
	t.Helper()
	ctx := context.Background()

	m := model.NewBuilder().
		UseCase("Checkout").
		BasicFlow().
		Step("Customer enters card").On(model.TypeOf[cardEntered]()).System(model.Run(func(context.Context) error { return nil })).
		Step("System charges card").System(model.Run(func(context.Context) error { return errDeclined })).
		Build()

	r := engine.NewRunner(engine.Config{ID: "r-1", Observer: obs, Logger: testutil.Logger(t)})
	require.NoError(t, r.Run(ctx, m))

	_, err := r.ReactTo(ctx, voucher{})
	require.NoError(t, err)

	_, err = r.ReactTo(ctx, cardEntered{})
	require.ErrorIs(t, err, errDeclined)

	r.Stop(ctx)
}
