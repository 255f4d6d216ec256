// Package export renders models as Mermaid flowcharts and YAML documents
// for documentation and review.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petrijr/reqflow/pkg/model"
)

// ErrModelNil is returned when a nil model is exported.
var ErrModelNil = errors.New("model cannot be nil")

// Mermaid converts a model to a Mermaid flowchart with default options.
func Mermaid(m *model.Model) (string, error) {
	return MermaidWithOptions(m, DefaultOptions())
}

// MermaidWithOptions converts a model to a Mermaid flowchart. Each use case
// is a subgraph; solid edges follow flow positions, dashed edges show
// alternatives, includes and continue steps.
func MermaidWithOptions(m *model.Model, opts Options) (string, error) {
	if m == nil {
		return "", ErrModelNil
	}
	if opts.Direction == "" {
		opts.Direction = "TD"
	}

	highlight := make(map[string]bool, len(opts.HighlightSteps))
	for _, name := range opts.HighlightSteps {
		highlight[name] = true
	}

	var sb strings.Builder
	if opts.Fenced {
		sb.WriteString("```mermaid\n")
	}
	fmt.Fprintf(&sb, "flowchart %s\n", opts.Direction)

	for i, uc := range m.UseCases() {
		fmt.Fprintf(&sb, "    subgraph uc%d [%s]\n", i, quote(uc.Name()))
		fmt.Fprintf(&sb, "        uc%d_start((start))\n", i)
		for _, st := range uc.Steps() {
			fmt.Fprintf(&sb, "        %s[%s]\n", nodeID(st), quote(label(st, opts)))
		}
		sb.WriteString("    end\n")
	}

	for i, uc := range m.UseCases() {
		for _, st := range uc.Steps() {
			writeEdges(&sb, i, st)
		}
	}

	var classes []string
	for _, st := range m.Steps() {
		switch {
		case highlight[st.Name()]:
			classes = append(classes, fmt.Sprintf("    class %s highlighted\n", nodeID(st)))
		case st.IsFlowless():
			classes = append(classes, fmt.Sprintf("    class %s flowless\n", nodeID(st)))
		case st.Kind() == model.KindHandler:
			classes = append(classes, fmt.Sprintf("    class %s handler\n", nodeID(st)))
		}
	}
	for _, c := range classes {
		sb.WriteString(c)
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef flowless fill:#eceff1,stroke:#455a64,stroke-dasharray:4\n")
	sb.WriteString("    classDef handler fill:#ffebee,stroke:#c62828,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")

	if opts.Fenced {
		sb.WriteString("```\n")
	}
	return sb.String(), nil
}

func writeEdges(sb *strings.Builder, ucIndex int, st *model.Step) {
	if st.IsFlowless() {
		return
	}
	id := nodeID(st)
	m := st.Model()

	if prev := st.PreviousStepInFlow(); prev != nil {
		fmt.Fprintf(sb, "    %s --> %s\n", nodeID(prev), id)
	} else {
		p := st.Position()
		switch p.Kind() {
		case model.AtStart:
			fmt.Fprintf(sb, "    uc%d_start --> %s\n", ucIndex, id)
		case model.After:
			fmt.Fprintf(sb, "    %s --> %s\n", nodeID(m.StepAt(p.Anchor())), id)
		case model.InsteadOf:
			fmt.Fprintf(sb, "    %s -. instead of .-> %s\n", nodeID(m.StepAt(p.Anchor())), id)
		case model.Anytime:
			fmt.Fprintf(sb, "    uc%d_start -. anytime .-> %s\n", ucIndex, id)
		}
	}

	switch st.Kind() {
	case model.KindInclude:
		if first := firstStep(st.IncludedUseCase()); first != nil {
			fmt.Fprintf(sb, "    %s -. includes .-> %s\n", id, nodeID(first))
		}
	case model.KindContinue:
		target, mode := st.ContinueTarget()
		fmt.Fprintf(sb, "    %s -. %s .-> %s\n", id, mode, nodeID(target))
	}
}

// firstStep returns the first step of the basic flow of uc, or nil.
func firstStep(uc *model.UseCase) *model.Step {
	f := uc.BasicFlow()
	if f == nil {
		return nil
	}
	steps := f.Steps()
	if len(steps) == 0 {
		return nil
	}
	return steps[0]
}

func nodeID(st *model.Step) string {
	return fmt.Sprintf("s%d", st.Index())
}

func label(st *model.Step, opts Options) string {
	var sb strings.Builder
	sb.WriteString(st.Name())
	if !st.Kind().Autonomous() {
		fmt.Fprintf(&sb, "<br/>on %s", st.EventType().Name())
	}
	if opts.ShowConditions {
		if s := conditionText(st.Condition()); s != "" {
			fmt.Fprintf(&sb, "<br/>when %s", s)
		}
	}
	return sb.String()
}

// conditionText returns the printable form of c, "custom" for opaque
// conditions and "" for none.
func conditionText(c model.Condition) string {
	if c == nil {
		return ""
	}
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return "custom"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}
