package fsm

// Registrar is the part of a Machine a state descriptor needs.
type Registrar interface {
	RegisterTransition(currentState, event string, action Action, nextState string)
}

var _ Registrar = (*Machine)(nil)

// StateDescriptor describes one state and registers its outgoing edges.
// Init is expected to be called once, at composition time.
type StateDescriptor interface {
	Name() string
	Init(r Registrar)
}

// Edge is one outgoing transition of a State.
type Edge struct {
	Event  string
	Action Action
	To     string
}

// On creates an Edge.
func On(event string, action Action, to string) Edge {
	return Edge{Event: event, Action: action, To: to}
}

// State is a declarative StateDescriptor. A State without edges is
// terminal and registers nothing.
type State struct {
	name  string
	edges []Edge
}

var _ StateDescriptor = (*State)(nil)

// NewState creates a state descriptor with the given outgoing edges.
func NewState(name string, edges ...Edge) *State {
	return &State{name: name, edges: edges}
}

func (s *State) Name() string {
	return s.name
}

// Edges returns a copy of the state's edges.
func (s *State) Edges() []Edge {
	edges := make([]Edge, len(s.edges))
	copy(edges, s.edges)

	return edges
}

// Terminal reports whether the state has no outgoing edges.
func (s *State) Terminal() bool {
	return len(s.edges) == 0
}

func (s *State) Init(r Registrar) {
	for _, edge := range s.edges {
		r.RegisterTransition(s.name, edge.Event, edge.Action, edge.To)
	}
}

// Definition is one row of a table literal.
type Definition struct {
	From   string
	Event  string
	Action Action
	To     string
}

// RegisterAll registers every definition in order, so later duplicates
// win.
func RegisterAll(r Registrar, defs ...Definition) {
	for _, def := range defs {
		r.RegisterTransition(def.From, def.Event, def.Action, def.To)
	}
}
