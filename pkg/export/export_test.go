package export

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/reqflow/pkg/model"
)

type enterText struct{}

type coupon struct{}

type declined struct{}

func (declined) Error() string { return "declined" }

// namedCondition is a printable condition.
type namedCondition string

func (c namedCondition) Evaluate(context.Context, model.State) (bool, error) { return true, nil }
func (c namedCondition) String() string                                      { return string(c) }

var noop = model.Run(func(context.Context) error { return nil })

func newShopModel() *model.Model {
	b := model.NewBuilder()
	customer := b.Actor("Customer")
	return b.
		UseCase("Receipt").
		Handles(model.TypeOf[coupon]()).With(noop).
		BasicFlow().
		Step("System prints").System(noop).
		UseCase("Checkout").
		BasicFlow().
		Step("Customer enters text").On(model.TypeOf[enterText]()).As(customer).System(noop).
		Step("System pays").System(noop).
		Step("System shows receipt").IncludesUseCase("Receipt").
		Flow("Coupon").InsteadOf("System pays").When(namedCondition(`vars.coupon`)).
		Step("Customer redeems").On(model.TypeOf[coupon]()).System(noop).
		Step("Back to payment").ContinuesAt("System pays").
		Flow("Declined").After("System pays").
		Step("Retry").On(model.ErrorOf[declined]()).System(noop).
		Build()
}

func TestMermaid(t *testing.T) {
	out, err := Mermaid(newShopModel())
	require.NoError(t, err)

	wantContain := []string{
		"```mermaid\n",
		"flowchart TD",
		`subgraph uc0 ["Receipt"]`,
		`subgraph uc1 ["Checkout"]`,
		`s2["Customer enters text<br/>on export.enterText"]`,
		`s3["System pays"]`,
		"uc1_start --> s2",
		"s2 --> s3",
		"s3 --> s4",
		"s3 -. instead of .-> s5",
		`s5["Customer redeems<br/>on export.coupon<br/>when vars.coupon"]`,
		"s6 -. continues at .-> s3",
		"s4 -. includes .-> s1",
		"uc0_start --> s1",
		"s3 --> s7",
		"class s0 flowless",
		"class s7 handler",
		"classDef highlighted",
	}
	for _, want := range wantContain {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "```\n"))
}

func TestMermaidWithOptions(t *testing.T) {
	opts := DefaultOptions().
		WithDirection("LR").
		WithShowConditions(false).
		WithFenced(false).
		WithHighlightSteps([]string{"Customer enters text", "System pays"})

	out, err := MermaidWithOptions(newShopModel(), opts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "flowchart LR\n"))
	assert.NotContains(t, out, "```")
	assert.NotContains(t, out, "when vars.coupon")
	assert.Contains(t, out, "class s2 highlighted")
	assert.Contains(t, out, "class s3 highlighted")
}

func TestMermaid_NilModel(t *testing.T) {
	_, err := Mermaid(nil)
	assert.ErrorIs(t, err, ErrModelNil)
}

func TestMermaid_QuotesLabels(t *testing.T) {
	m := model.NewBuilder().
		UseCase(`Say "hi"`).
		BasicFlow().
		Step(`Print "hi"`).System(noop).
		Build()

	out, err := Mermaid(m)
	require.NoError(t, err)
	assert.Contains(t, out, `s0["Print #quot;hi#quot;"]`)
}

func TestYAML(t *testing.T) {
	out, err := YAML(newShopModel())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal(out, &doc))

	assert.Equal(t, []string{"Customer"}, doc.Actors)
	require.Len(t, doc.UseCases, 2)

	receipt := doc.UseCases[0]
	assert.Equal(t, "Receipt", receipt.Name)
	require.Len(t, receipt.Flowless, 1)
	assert.Equal(t, "S1", receipt.Flowless[0].Name)
	assert.Equal(t, "export.coupon", receipt.Flowless[0].On)

	checkout := doc.UseCases[1]
	assert.Equal(t, "Checkout", checkout.Name)
	require.Len(t, checkout.Flows, 3)

	basic := checkout.Flows[0]
	assert.Equal(t, model.BasicFlowName, basic.Name)
	assert.Empty(t, basic.Position)
	require.Len(t, basic.Steps, 3)
	assert.Equal(t, StepDocument{
		Name:     "Customer enters text",
		Kind:     "user",
		On:       "export.enterText",
		Position: "at start",
		Actors:   []string{"Customer"},
	}, basic.Steps[0])
	assert.Equal(t, "system", basic.Steps[1].Kind)
	assert.Empty(t, basic.Steps[1].Position)
	assert.Equal(t, "Receipt", basic.Steps[2].Includes)

	couponFlow := checkout.Flows[1]
	assert.Equal(t, "instead of Checkout/System pays", couponFlow.Position)
	assert.Equal(t, "vars.coupon", couponFlow.Condition)
	assert.Equal(t, "continues at System pays", couponFlow.Steps[1].Continues)

	declinedFlow := checkout.Flows[2]
	assert.Equal(t, "after Checkout/System pays", declinedFlow.Position)
	assert.Equal(t, "handler", declinedFlow.Steps[0].Kind)
	assert.Equal(t, "export.declined", declinedFlow.Steps[0].On)
}

func TestYAML_NilModel(t *testing.T) {
	_, err := YAML(nil)
	assert.ErrorIs(t, err, ErrModelNil)
}
