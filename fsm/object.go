package fsm

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Object is a stateful entity driven by a Machine. Its current state can
// only be changed by a successful transition.
type Object struct {
	mu           sync.RWMutex
	id           string
	currentState string
	data         map[string]any
	history      []StateTransition
	createdAt    time.Time
	updatedAt    time.Time
}

// StateTransition records one successful transition of an Object.
type StateTransition struct {
	From      string
	Event     string
	To        string
	Timestamp time.Time
}

// ObjectOption configures an Object at construction.
type ObjectOption func(*Object)

// WithObjectID overrides the generated object ID.
func WithObjectID(id string) ObjectOption {
	return func(o *Object) {
		o.id = id
	}
}

// WithData seeds the object's data bag.
func WithData(data map[string]any) ObjectOption {
	return func(o *Object) {
		maps.Copy(o.data, data)
	}
}

// NewObject creates an object in the given initial state.
func NewObject(initialState string, opts ...ObjectOption) *Object {
	now := time.Now()

	obj := &Object{
		id:           uuid.NewString(),
		currentState: initialState,
		data:         make(map[string]any),
		history:      []StateTransition{},
		createdAt:    now,
		updatedAt:    now,
	}

	for _, opt := range opts {
		opt(obj)
	}

	return obj
}

// ID returns the object identifier.
func (o *Object) ID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.id
}

// CurrentState returns the name of the state the object is in.
func (o *Object) CurrentState() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.currentState
}

// Get retrieves a value from the object's data bag.
func (o *Object) Get(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	val, ok := o.data[key]

	return val, ok
}

// GetString retrieves a string value from the data bag.
func (o *Object) GetString(key string) (string, bool) {
	val, ok := o.Get(key)
	if !ok {
		return "", false
	}

	str, ok := val.(string)

	return str, ok
}

// GetInt retrieves an int value from the data bag.
func (o *Object) GetInt(key string) (int, bool) {
	val, ok := o.Get(key)
	if !ok {
		return 0, false
	}

	i, ok := val.(int)

	return i, ok
}

// Set stores a value in the object's data bag. Actions use this to record
// side effects; it never touches the current state.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.data[key] = value
	o.updatedAt = time.Now()
}

// History returns a copy of the successful transitions, oldest first.
func (o *Object) History() []StateTransition {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]StateTransition, len(o.history))
	copy(out, o.history)

	return out
}

// UpdatedAt returns the time of the last state or data change.
func (o *Object) UpdatedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.updatedAt
}

// advance moves the object to next and records the transition.
func (o *Object) advance(from, event, next string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()

	o.history = append(o.history, StateTransition{
		From:      from,
		Event:     event,
		To:        next,
		Timestamp: now,
	})
	o.currentState = next
	o.updatedAt = now
}
