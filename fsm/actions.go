package fsm

import (
	"context"
	"fmt"
	"reflect"
)

// Built-in action types understood by ActionFactory.
const (
	ActionTypeAlways  = "always"
	ActionTypeNoop    = "noop"
	ActionTypeReject  = "reject"
	ActionTypeSet     = "set"
	ActionTypeRequire = "require"
)

// ActionBuilder creates an action from configuration.
type ActionBuilder func(factory *ActionFactory, name string, params map[string]any) (Action, error)

// ActionFactory creates actions from configuration. Applications can
// register custom builders to extend it.
type ActionFactory struct {
	builders map[string]ActionBuilder
}

// NewActionFactory creates a factory with the built-in builders.
func NewActionFactory() *ActionFactory {
	factory := &ActionFactory{
		builders: make(map[string]ActionBuilder),
	}

	factory.Register(ActionTypeAlways, alwaysActionBuilder)
	factory.Register(ActionTypeNoop, noopActionBuilder)
	factory.Register(ActionTypeReject, rejectActionBuilder)
	factory.Register(ActionTypeSet, setActionBuilder)
	factory.Register(ActionTypeRequire, requireActionBuilder)

	return factory
}

// Register adds or replaces a builder.
func (f *ActionFactory) Register(actionType string, builder ActionBuilder) {
	f.builders[actionType] = builder
}

// Has reports whether a builder exists for actionType.
func (f *ActionFactory) Has(actionType string) bool {
	_, ok := f.builders[actionType]

	return ok
}

// Create builds an action from its configuration. An empty name defaults
// to the action type.
func (f *ActionFactory) Create(config ActionConfig) (Action, error) {
	builder, ok := f.builders[config.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActionType, config.Type)
	}

	name := config.Name
	if name == "" {
		name = config.Type
	}

	return builder(f, name, config.Parameters)
}

func alwaysActionBuilder(_ *ActionFactory, name string, _ map[string]any) (Action, error) {
	return Always(name), nil
}

func noopActionBuilder(_ *ActionFactory, name string, _ map[string]any) (Action, error) {
	return NewAction(name, func(context.Context, *Object) error {
		return nil
	}), nil
}

func rejectActionBuilder(_ *ActionFactory, name string, params map[string]any) (Action, error) {
	reason, err := optionalString(params, "reason")
	if err != nil {
		return nil, err
	}

	return Reject(name, reason), nil
}

// setActionBuilder creates an action that stores parameters.value under
// parameters.key and accepts the transition.
func setActionBuilder(_ *ActionFactory, name string, params map[string]any) (Action, error) {
	key, err := requiredString(params, "key")
	if err != nil {
		return nil, err
	}

	value := params["value"]

	return NewAction(name, func(_ context.Context, obj *Object) error {
		obj.Set(key, value)

		return nil
	}), nil
}

// requireActionBuilder creates an action that accepts the transition only
// when the object's data holds parameters.value under parameters.key. Without
// a value, presence of the key is enough.
func requireActionBuilder(_ *ActionFactory, name string, params map[string]any) (Action, error) {
	key, err := requiredString(params, "key")
	if err != nil {
		return nil, err
	}

	want, checkValue := params["value"]

	return FromPredicate(name, func(_ context.Context, obj *Object) bool {
		got, ok := obj.Get(key)
		if !ok {
			return false
		}

		return !checkValue || reflect.DeepEqual(got, want)
	}), nil
}

func requiredString(params map[string]any, key string) (string, error) {
	value, err := optionalString(params, key)
	if err != nil {
		return "", err
	}

	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidActionParameter, key)
	}

	return value, nil
}

func optionalString(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", nil
	}

	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidActionParameter, key, raw)
	}

	return value, nil
}
