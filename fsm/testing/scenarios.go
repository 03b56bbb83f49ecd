package testing

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Step is one event in a Scenario and what it should do.
type Step struct {
	Event string

	// Accepted is the expected ProcessEvent result.
	Accepted bool

	// State is the expected state after the step. Empty skips the check.
	State string

	// Reason is the expected failure reason for rejected steps. Empty
	// skips the check.
	Reason string
}

// Scenario drives one fresh object through a list of steps.
type Scenario struct {
	Name    string
	Initial string
	Data    map[string]any
	Steps   []Step
}

// Accept is a step that must succeed and land in state.
func Accept(event, state string) Step {
	return Step{Event: event, Accepted: true, State: state}
}

// Refuse is a step that must fail with reason and leave the object in state.
func Refuse(event, state, reason string) Step {
	return Step{Event: event, State: state, Reason: reason}
}

// RunScenarios runs each scenario as a subtest against a machine built by
// newMachine. Each scenario gets its own machine and object.
func RunScenarios(t *testing.T, newMachine func(t *testing.T) *fsm.Machine, scenarios ...Scenario) {
	t.Helper()

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			t.Parallel()

			RunScenario(t, newMachine(t), scenario)
		})
	}
}

// RunScenario runs a single scenario against machine and returns the object
// it drove.
func RunScenario(t *testing.T, machine *fsm.Machine, scenario Scenario) *fsm.Object {
	t.Helper()

	require.NotNil(t, machine)

	obj := fsm.NewObject(scenario.Initial, fsm.WithData(scenario.Data))
	ctx := context.Background()

	for i, step := range scenario.Steps {
		before := obj.CurrentState()
		err := machine.Dispatch(ctx, step.Event, obj)

		if step.Accepted {
			require.NoError(t, err, "step %d (%s)", i, step.Event)
		} else {
			require.Error(t, err, "step %d (%s) should be refused", i, step.Event)
			assert.Equal(t, before, obj.CurrentState(), "step %d (%s) changed state on failure", i, step.Event)

			if step.Reason != "" {
				assert.Equal(t, step.Reason, fsm.Reason(err), "step %d (%s)", i, step.Event)
			}
		}

		if step.State != "" {
			require.Equal(t, step.State, obj.CurrentState(), "step %d (%s)", i, step.Event)
		}
	}

	return obj
}
