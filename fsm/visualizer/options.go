package visualizer

// Options configures the diagram.
type Options struct {
	// ShowActions appends the action name to each edge label
	ShowActions bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// InitialState, when set, gets a "[*] -->" entry marker
	InitialState string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string
}

// DefaultOptions returns the options used by GenerateMermaid.
func DefaultOptions() Options {
	return Options{
		ShowActions: true,
		Direction:   "TD",
	}
}

// WithShowActions enables/disables action names on edges.
func (o Options) WithShowActions(show bool) Options {
	o.ShowActions = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithInitialState sets the state marked as the entry point.
func (o Options) WithInitialState(state string) Options {
	o.InitialState = state

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}
