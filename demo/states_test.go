package demo

import (
	"context"
	"strings"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	fsmtesting "github.com/amp-labs/amp-fsm/fsm/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDemoMachine(t *testing.T) *fsm.Machine {
	t.Helper()

	machine := fsmtesting.NewTestMachine(t)
	machine.Register(Descriptors()...)

	return machine.Machine
}

func TestDemoTable(t *testing.T) {
	t.Parallel()

	machine := NewMachine(fsm.WithTracing(false))
	assert.Equal(t, "demo", machine.Name())
	assert.Equal(t, 3, machine.Size())

	row, ok := machine.Lookup(Initial, EventOne)
	require.True(t, ok)
	assert.Equal(t, Final, row.NextState)

	row, ok = machine.Lookup(Initial, EventTwo)
	require.True(t, ok)
	assert.Equal(t, Intermediate, row.NextState)

	row, ok = machine.Lookup(Intermediate, EventThree)
	require.True(t, ok)
	assert.Equal(t, Final, row.NextState)

	assert.True(t, FinalState().Terminal())
}

func TestDemoScenarios(t *testing.T) {
	t.Parallel()

	fsmtesting.RunScenarios(t, newDemoMachine,
		fsmtesting.Scenario{
			Name:    "initial to final",
			Initial: Initial,
			Steps:   []fsmtesting.Step{fsmtesting.Accept(EventOne, Final)},
		},
		fsmtesting.Scenario{
			Name:    "initial to intermediate to final",
			Initial: Initial,
			Steps: []fsmtesting.Step{
				fsmtesting.Accept(EventTwo, Intermediate),
				fsmtesting.Accept(EventThree, Final),
			},
		},
		fsmtesting.Scenario{
			Name:    "final state accepts nothing",
			Initial: Final,
			Steps: []fsmtesting.Step{
				fsmtesting.Refuse(EventOne, Final, fsm.ReasonUnknownTransition),
				fsmtesting.Refuse(EventTwo, Final, fsm.ReasonUnknownTransition),
				fsmtesting.Refuse(EventThree, Final, fsm.ReasonUnknownTransition),
			},
		},
		fsmtesting.Scenario{
			Name:    "intermediate ignores initial events",
			Initial: Initial,
			Steps: []fsmtesting.Step{
				fsmtesting.Accept(EventTwo, Intermediate),
				fsmtesting.Refuse(EventOne, Intermediate, fsm.ReasonUnknownTransition),
				fsmtesting.Accept(EventThree, Final),
			},
		},
	)
}

func TestDemoHistory(t *testing.T) {
	t.Parallel()

	machine := NewMachine(fsm.WithName(t.Name()), fsm.WithTracing(false))
	obj := NewObject()
	ctx := context.Background()

	require.True(t, machine.ProcessEvent(ctx, EventTwo, obj))
	require.True(t, machine.ProcessEvent(ctx, EventThree, obj))

	fsmtesting.AssertPath(t, obj, Initial, Intermediate, Final)
}

func TestDemoMatchesConfig(t *testing.T) {
	t.Parallel()

	config, err := fsm.LoadConfig("../fsm/testdata/demo.yaml")
	require.NoError(t, err)

	fromConfig, err := config.Build(nil, fsm.WithName(t.Name()+"-config"), fsm.WithTracing(false))
	require.NoError(t, err)

	fromCode := NewMachine(fsm.WithName(t.Name()+"-code"), fsm.WithTracing(false))

	require.Equal(t, fromCode.Size(), fromConfig.Size())

	for key, row := range fromCode.Entries() {
		other, ok := fromConfig.Lookup(key.State, key.Event)
		require.True(t, ok, key.String())
		assert.Equal(t, row.NextState, other.NextState, key.String())
	}
}

func TestDemoPrint(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	require.NoError(t, NewMachine(fsm.WithTracing(false)).Print(&sb))

	assert.Equal(t, strings.Join([]string{
		"machine demo: 3 transitions",
		"  InitialState --EventOne--> FinalState [onEventOneToFinalState]",
		"  InitialState --EventTwo--> IntermediateState [onEventTwoToIntermediateState]",
		"  IntermediateState --EventThree--> FinalState [onEventThreeToFinalState]",
		"",
	}, "\n"), sb.String())
}
