package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoJQEngine_Name(t *testing.T) {
	assert.Equal(t, "jq", NewGoJQEngine().Name())
}

func TestGoJQ_StateVariables(t *testing.T) {
	e := NewGoJQEngine()
	data := StateData(checkoutState(map[string]any{"total": int64(150), "ratio": float32(0.5)}))

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"latest", `.latest == "Customer pays"`, true},
		{"history membership", `any(.history[]; . == "Customer adds item")`, true},
		{"history length", `.history | length`, 2},
		{"variable", `.vars.total > 100 and .vars.ratio < 1`, true},
		{"missing variable", `.vars.coupon == null`, true},
		{"several outputs", `.history[]`, []any{"Customer adds item", "Customer pays"}},
		{"no output", `empty`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Evaluate(context.Background(), tt.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestGoJQ_Errors(t *testing.T) {
	e := NewGoJQEngine()

	assert.ErrorIs(t, e.Compile(""), ErrEmptyExpression)
	assert.ErrorIs(t, e.Compile(`.latest ==`), ErrCompile)
	assert.ErrorIs(t, e.Compile(`$undefined`), ErrCompile)

	_, err := e.Evaluate(context.Background(), `error("declined")`, map[string]any{})
	assert.ErrorIs(t, err, ErrEvaluate)
}

func TestGoJQ_NoEnvironment(t *testing.T) {
	out, err := NewGoJQEngine().Evaluate(context.Background(), `env | length`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 0, out)
}

func TestNormalizeForJQ(t *testing.T) {
	in := map[string]any{
		"names": []string{"a", "b"},
		"n":     int64(3),
		"f":     float32(1.5),
		"list":  []any{int32(1), "x"},
	}
	want := map[string]any{
		"names": []any{"a", "b"},
		"n":     3,
		"f":     1.5,
		"list":  []any{1, "x"},
	}
	assert.Equal(t, want, normalizeForJQ(in))
}
