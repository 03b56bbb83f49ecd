package testing

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trafficLight(t *testing.T) *fsm.Machine {
	t.Helper()

	machine := NewTestMachine(t)
	fsm.RegisterAll(machine,
		fsm.Definition{From: "Red", Event: "next", Action: fsm.Always("to-green"), To: "Green"},
		fsm.Definition{From: "Green", Event: "next", Action: fsm.Always("to-yellow"), To: "Yellow"},
		fsm.Definition{From: "Yellow", Event: "next", Action: fsm.Always("to-red"), To: "Red"},
		fsm.Definition{From: "Red", Event: "emergency", Action: fsm.Reject("busy", "already stopped"), To: "Red"},
	)

	return machine.Machine
}

func TestRunScenarios(t *testing.T) {
	t.Parallel()

	RunScenarios(t, trafficLight,
		Scenario{
			Name:    "full cycle",
			Initial: "Red",
			Steps: []Step{
				Accept("next", "Green"),
				Accept("next", "Yellow"),
				Accept("next", "Red"),
			},
		},
		Scenario{
			Name:    "refusals keep state",
			Initial: "Red",
			Steps: []Step{
				Refuse("emergency", "Red", fsm.ReasonActionRejected),
				Refuse("unknown", "Red", fsm.ReasonUnknownTransition),
				Accept("next", "Green"),
			},
		},
	)
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	machine := NewTestMachine(t)
	machine.RegisterTransition("a", "go", fsm.Always("go"), "b")

	obj := fsm.NewObject("a")
	ctx := context.Background()

	assert.True(t, machine.ProcessEvent(ctx, "go", obj))
	assert.False(t, machine.ProcessEvent(ctx, "go", obj))
	assert.False(t, machine.ProcessEvent(ctx, "go", nil))

	outcomes := machine.Recorder.Outcomes()
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Succeeded())
	assert.Len(t, machine.Recorder.Failures(fsm.ReasonUnknownTransition), 1)
	assert.Len(t, machine.Recorder.Failures(fsm.ReasonNilObject), 1)
	assert.Empty(t, machine.Recorder.Failures(fsm.ReasonActionFault))

	machine.Recorder.Reset()
	assert.Empty(t, machine.Recorder.Outcomes())
}

func TestAssertPath(t *testing.T) {
	t.Parallel()

	machine := trafficLight(t)
	obj := RunScenario(t, machine, Scenario{
		Initial: "Red",
		Steps:   []Step{Accept("next", "Green"), Accept("next", "Yellow")},
	})

	AssertState(t, obj, "Yellow")
	AssertPath(t, obj, "Red", "Green", "Yellow")

	fresh := fsm.NewObject("Red")
	AssertPath(t, fresh, "Red")
}
