package fsm

import (
	"errors"
	"fmt"
	"log/slog"
)

// Dispatch errors. ProcessEvent collapses all of them to false; Dispatch
// returns them wrapped in a *TransitionError.
var (
	// ErrUnknownTransition indicates that no row exists for the state and event.
	ErrUnknownTransition = errors.New("no transition defined for state and event")
	// ErrActionRejected indicates that the row's action returned an error.
	ErrActionRejected = errors.New("transition action rejected the event")
	// ErrActionFault indicates that the action (or the lookup) panicked.
	ErrActionFault = errors.New("transition action faulted")
	// ErrNilObject indicates that no object was passed to the machine.
	ErrNilObject = errors.New("stateful object is nil")
	// ErrNilAction indicates that the row was registered without an action.
	ErrNilAction = errors.New("transition has no action")
	// ErrPredicateFalse is returned by predicate actions that evaluate to false.
	ErrPredicateFalse = errors.New("predicate returned false")
	// ErrPanicRecovery marks an error built from a recovered panic.
	ErrPanicRecovery = errors.New("recovered from panic")
)

// Configuration errors.
var (
	// ErrConfigNameRequired indicates that a configuration name is required.
	ErrConfigNameRequired = errors.New("config name is required")
	// ErrStateNameRequired indicates that a state name is required.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrEventRequired indicates that a transition event is required.
	ErrEventRequired = errors.New("transition event is required")
	// ErrTransitionToRequired indicates that a transition target is required.
	ErrTransitionToRequired = errors.New("transition to state is required")
	// ErrActionTypeRequired indicates that an action type is required.
	ErrActionTypeRequired = errors.New("action type is required")
	// ErrUnknownActionType indicates that no builder is registered for an action type.
	ErrUnknownActionType = errors.New("unknown action type")
	// ErrInvalidActionParameter indicates that an action parameter has the wrong type.
	ErrInvalidActionParameter = errors.New("invalid action parameter")
)

// Reason labels used in logs and metrics.
const (
	ReasonNone              = "none"
	ReasonUnknownTransition = "unknown_transition"
	ReasonActionRejected    = "action_rejected"
	ReasonActionFault       = "action_fault"
	ReasonNilObject         = "nil_object"
	ReasonOther             = "other"
)

// TransitionError wraps a dispatch failure with the state and event that
// produced it. Next is empty when no row was found.
type TransitionError struct {
	State string
	Event string
	Next  string
	Err   error
}

func (e *TransitionError) Error() string {
	if e.Next == "" {
		return fmt.Sprintf("state %s, event %s: %v", e.State, e.Event, e.Err)
	}

	return fmt.Sprintf("transition %s -[%s]-> %s: %v", e.State, e.Event, e.Next, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// LogAttrs exposes the transition as a "transition" group for log handlers
// that expand error attributes.
func (e *TransitionError) LogAttrs() []slog.Attr {
	args := []any{"state", e.State, "event", e.Event, "reason", Reason(e)}
	if e.Next != "" {
		args = append(args, "next_state", e.Next)
	}

	return []slog.Attr{slog.Group("transition", args...)}
}

// WrapTransitionError wraps an error with transition context.
func WrapTransitionError(state, event, next string, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		State: state,
		Event: event,
		Next:  next,
		Err:   err,
	}
}

// RejectionError is returned by actions built with Reject.
type RejectionError struct {
	Action string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("action %s rejected: %s", e.Action, e.Reason)
}

// Reason classifies a dispatch error into one of the Reason labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNilObject):
		return ReasonNilObject
	case errors.Is(err, ErrUnknownTransition):
		return ReasonUnknownTransition
	case errors.Is(err, ErrActionFault):
		return ReasonActionFault
	case errors.Is(err, ErrActionRejected):
		return ReasonActionRejected
	default:
		return ReasonOther
	}
}

// panicError converts a recovered panic value and stack into an
// ErrActionFault error. It returns nil when nothing was recovered.
func panicError(recovered any, stack []byte) error {
	if recovered == nil {
		return nil
	}

	var cause error

	if err, ok := recovered.(error); ok {
		cause = fmt.Errorf("%w: %w", ErrPanicRecovery, err)
	} else {
		cause = fmt.Errorf("%w: %v", ErrPanicRecovery, recovered)
	}

	if stack != nil {
		return fmt.Errorf("%w: %w\nstack trace:\n%s", ErrActionFault, cause, string(stack))
	}

	return fmt.Errorf("%w: %w", ErrActionFault, cause)
}

// classifyActionError maps an action's returned error onto the dispatch
// taxonomy. Errors that already carry ErrActionFault keep it.
func classifyActionError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrActionFault) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrActionRejected, err)
}
