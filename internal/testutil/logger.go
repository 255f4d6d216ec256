package testutil

import (
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
)

// Logger returns a logger that writes through t.Log, so output is only shown
// for failing or verbose tests.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	return slogt.New(t)
}
