// Package fsm provides a table-driven finite state machine engine.
//
// A Machine owns a transition table that maps (current state, event) pairs to
// an Action and the name of the next state. Callers drive Objects through the
// table with ProcessEvent; the object's state only advances after the action
// reports success.
package fsm

import "context"

// Action is the behavior executed when a (state, event) row matches.
// Returning nil accepts the transition, any error rejects it.
type Action interface {
	Apply(ctx context.Context, obj *Object) error
	Name() string
}

// Row is the value half of a table entry.
type Row struct {
	Action    Action
	NextState string
}

// ActionName returns the name of the row's action, or "<nil>".
func (r Row) ActionName() string {
	if r.Action == nil {
		return "<nil>"
	}

	return r.Action.Name()
}

// BaseAction provides the Name half of Action.
type BaseAction struct {
	name string
}

func (a *BaseAction) Name() string {
	return a.name
}

// funcAction adapts a plain function to Action.
type funcAction struct {
	BaseAction

	fn func(ctx context.Context, obj *Object) error
}

// NewAction creates an action from a function.
func NewAction(name string, fn func(ctx context.Context, obj *Object) error) Action {
	return &funcAction{
		BaseAction: BaseAction{name: name},
		fn:         fn,
	}
}

func (a *funcAction) Apply(ctx context.Context, obj *Object) error {
	return a.fn(ctx, obj)
}

// predicateAction adapts a boolean function to Action. A false result
// becomes ErrPredicateFalse.
type predicateAction struct {
	BaseAction

	fn func(ctx context.Context, obj *Object) bool
}

// FromPredicate creates an action that succeeds when fn returns true.
func FromPredicate(name string, fn func(ctx context.Context, obj *Object) bool) Action {
	return &predicateAction{
		BaseAction: BaseAction{name: name},
		fn:         fn,
	}
}

func (a *predicateAction) Apply(ctx context.Context, obj *Object) error {
	if !a.fn(ctx, obj) {
		return ErrPredicateFalse
	}

	return nil
}

// AlwaysAction accepts every transition.
type AlwaysAction struct {
	BaseAction
}

// Always creates an action that always succeeds.
func Always(name string) *AlwaysAction {
	return &AlwaysAction{BaseAction: BaseAction{name: name}}
}

func (a *AlwaysAction) Apply(ctx context.Context, obj *Object) error {
	return nil
}

// RejectAction rejects every transition with a fixed reason.
type RejectAction struct {
	BaseAction

	reason string
}

// Reject creates an action that always fails. An empty reason falls back to
// the action name.
func Reject(name string, reason string) *RejectAction {
	if reason == "" {
		reason = name
	}

	return &RejectAction{
		BaseAction: BaseAction{name: name},
		reason:     reason,
	}
}

func (a *RejectAction) Apply(ctx context.Context, obj *Object) error {
	return &RejectionError{Action: a.name, Reason: a.reason}
}
