// Package demo wires the three-state example machine used by the tests and
// the fsmctl demo command.
package demo

import "github.com/amp-labs/amp-fsm/fsm"

// State names.
const (
	Initial      = "InitialState"
	Intermediate = "IntermediateState"
	Final        = "FinalState"
)

// Event names.
const (
	EventOne   = "EventOne"
	EventTwo   = "EventTwo"
	EventThree = "EventThree"
)

// InitialState goes straight to FinalState on EventOne, or through
// IntermediateState on EventTwo.
func InitialState() *fsm.State {
	return fsm.NewState(Initial,
		fsm.On(EventOne, fsm.Always("onEventOneToFinalState"), Final),
		fsm.On(EventTwo, fsm.Always("onEventTwoToIntermediateState"), Intermediate),
	)
}

// IntermediateState finishes on EventThree.
func IntermediateState() *fsm.State {
	return fsm.NewState(Intermediate,
		fsm.On(EventThree, fsm.Always("onEventThreeToFinalState"), Final),
	)
}

// FinalState is terminal.
func FinalState() *fsm.State {
	return fsm.NewState(Final)
}

// Descriptors returns every demo state, each initialized once by NewMachine.
func Descriptors() []fsm.StateDescriptor {
	return []fsm.StateDescriptor{InitialState(), IntermediateState(), FinalState()}
}

// NewMachine builds the demo machine.
func NewMachine(opts ...fsm.Option) *fsm.Machine {
	machine := fsm.NewMachine(append([]fsm.Option{fsm.WithName("demo")}, opts...)...)
	machine.Register(Descriptors()...)

	return machine
}

// NewObject creates an object in InitialState.
func NewObject(opts ...fsm.ObjectOption) *fsm.Object {
	return fsm.NewObject(Initial, opts...)
}
