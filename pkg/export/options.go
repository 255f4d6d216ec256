package export

// Options configures the Mermaid output.
type Options struct {
	// ShowConditions appends printable step conditions to node labels.
	ShowConditions bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// HighlightSteps highlights steps by name, e.g. Runner.RunStepNames().
	HighlightSteps []string

	// Fenced wraps the diagram in a ```mermaid code fence.
	Fenced bool
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowConditions: true,
		Direction:      "TD",
		Fenced:         true,
	}
}

// WithShowConditions enables/disables condition labels.
func (o Options) WithShowConditions(show bool) Options {
	o.ShowConditions = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightSteps sets steps to highlight.
func (o Options) WithHighlightSteps(steps []string) Options {
	o.HighlightSteps = steps

	return o
}

// WithFenced enables/disables the code fence.
func (o Options) WithFenced(fenced bool) Options {
	o.Fenced = fenced

	return o
}
