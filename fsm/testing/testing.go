// Package testing provides helpers for testing machines and the objects
// they drive.
package testing

import (
	"context"
	"sync"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// Recorder is a dispatch hook that keeps every Outcome it sees.
type Recorder struct {
	mu       sync.Mutex
	outcomes []fsm.Outcome
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hook returns the DispatchHook to install on a machine.
func (r *Recorder) Hook() fsm.DispatchHook {
	return func(_ context.Context, outcome fsm.Outcome) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.outcomes = append(r.outcomes, outcome)
	}
}

// Outcomes returns a copy of the recorded outcomes, oldest first.
func (r *Recorder) Outcomes() []fsm.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]fsm.Outcome, len(r.outcomes))
	copy(out, r.outcomes)

	return out
}

// Failures returns the recorded outcomes with the given failure reason.
func (r *Recorder) Failures(reason string) []fsm.Outcome {
	var out []fsm.Outcome

	for _, outcome := range r.Outcomes() {
		if outcome.Err != nil && fsm.Reason(outcome.Err) == reason {
			out = append(out, outcome)
		}
	}

	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = nil
}

// TestMachine is a Machine wired to a Recorder and a per-test logger.
type TestMachine struct {
	*fsm.Machine

	Recorder *Recorder
}

// NewTestMachine creates a machine named after the test. It logs through
// slogt so output is attached to the test, and has tracing off. Extra
// options are applied last.
func NewTestMachine(t *testing.T, opts ...fsm.Option) *TestMachine {
	t.Helper()

	recorder := NewRecorder()

	base := []fsm.Option{
		fsm.WithName(t.Name()),
		fsm.WithSlog(slogt.New(t)),
		fsm.WithTracing(false),
		fsm.WithHook(recorder.Hook()),
	}

	return &TestMachine{
		Machine:  fsm.NewMachine(append(base, opts...)...),
		Recorder: recorder,
	}
}

// AssertState fails the test unless obj is in state.
func AssertState(t *testing.T, obj *fsm.Object, state string) {
	t.Helper()

	require.NotNil(t, obj)
	require.Equal(t, state, obj.CurrentState(), "object %s is in the wrong state", obj.ID())
}

// AssertPath fails the test unless obj went through exactly the given
// states, starting with the state it was created in.
func AssertPath(t *testing.T, obj *fsm.Object, states ...string) {
	t.Helper()

	require.NotNil(t, obj)

	history := obj.History()

	if len(states) == 0 {
		require.Empty(t, history)

		return
	}

	path := make([]string, 0, len(history)+1)

	if len(history) == 0 {
		path = append(path, obj.CurrentState())
	} else {
		path = append(path, history[0].From)

		for _, step := range history {
			path = append(path, step.To)
		}
	}

	require.Equal(t, states, path)
}
