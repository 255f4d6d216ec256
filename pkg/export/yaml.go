package export

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/reqflow/pkg/model"
)

// Document is the YAML form of a model. It describes structure only;
// reactions and conditions are not serializable and appear by name.
type Document struct {
	Actors   []string          `yaml:"actors,omitempty"`
	UseCases []UseCaseDocument `yaml:"useCases"`
}

type UseCaseDocument struct {
	Name     string         `yaml:"name"`
	Flows    []FlowDocument `yaml:"flows,omitempty"`
	Flowless []StepDocument `yaml:"flowless,omitempty"`
}

type FlowDocument struct {
	Name      string         `yaml:"name"`
	Position  string         `yaml:"position,omitempty"`
	Condition string         `yaml:"condition,omitempty"`
	Steps     []StepDocument `yaml:"steps"`
}

type StepDocument struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	On         string   `yaml:"on,omitempty"`
	Position   string   `yaml:"position,omitempty"`
	Condition  string   `yaml:"condition,omitempty"`
	ReactWhile string   `yaml:"reactWhile,omitempty"`
	Actors     []string `yaml:"actors,omitempty"`
	Includes   string   `yaml:"includes,omitempty"`
	Continues  string   `yaml:"continues,omitempty"`
}

// YAML renders m as a YAML document.
func YAML(m *model.Model) ([]byte, error) {
	doc, err := NewDocument(m)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model: %w", err)
	}
	return out, nil
}

// NewDocument builds the Document for m.
func NewDocument(m *model.Model) (*Document, error) {
	if m == nil {
		return nil, ErrModelNil
	}

	doc := &Document{}
	for _, a := range m.Actors() {
		doc.Actors = append(doc.Actors, a.Name())
	}

	for _, uc := range m.UseCases() {
		ucDoc := UseCaseDocument{Name: uc.Name()}
		for _, f := range uc.Flows() {
			fd := FlowDocument{
				Name:      f.Name(),
				Condition: conditionText(f.Condition()),
			}
			if !f.IsBasic() {
				fd.Position = positionText(m, f.Position())
			}
			for _, st := range f.Steps() {
				fd.Steps = append(fd.Steps, stepDocument(st))
			}
			ucDoc.Flows = append(ucDoc.Flows, fd)
		}
		for _, st := range uc.FlowlessSteps() {
			ucDoc.Flowless = append(ucDoc.Flowless, stepDocument(st))
		}
		doc.UseCases = append(doc.UseCases, ucDoc)
	}
	return doc, nil
}

func stepDocument(st *model.Step) StepDocument {
	sd := StepDocument{
		Name:       st.Name(),
		Kind:       st.Kind().String(),
		Condition:  conditionText(st.Condition()),
		ReactWhile: conditionText(st.ReactWhile()),
	}
	if !st.Kind().Autonomous() {
		sd.On = st.EventType().Name()
	}
	if !st.IsFlowless() && st.PreviousStepInFlow() == nil {
		sd.Position = positionText(st.Model(), st.Position())
	}
	for _, a := range st.Actors() {
		sd.Actors = append(sd.Actors, a.Name())
	}
	switch st.Kind() {
	case model.KindInclude:
		sd.Includes = st.IncludedUseCase().Name()
	case model.KindContinue:
		target, mode := st.ContinueTarget()
		sd.Continues = fmt.Sprintf("%s %s", mode, target.Name())
	}
	return sd
}

func positionText(m *model.Model, p model.Position) string {
	switch p.Kind() {
	case model.After, model.InsteadOf:
		return fmt.Sprintf("%s %s", p.Kind(), m.StepAt(p.Anchor()))
	default:
		return p.Kind().String()
	}
}
