package fsm

import (
	"context"
	"fmt"
	"iter"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// DispatchHook observes the result of every dispatch. Hooks run after the
// object has (or has not) been advanced and cannot change the result.
type DispatchHook func(ctx context.Context, outcome Outcome)

// Outcome describes one dispatch.
type Outcome struct {
	Machine  string
	ObjectID string
	Event    string
	From     string
	To       string // empty unless a row was found
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the object was advanced.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Stats is a snapshot of a machine's dispatch counters.
type Stats struct {
	Processed int64
	Succeeded int64
	Unknown   int64
	Rejected  int64
	Faulted   int64
}

// Machine is a table-driven finite state machine. It owns its table
// exclusively and holds no per-object state; everything that changes lives
// in the Objects it drives.
type Machine struct {
	name             string
	table            Table
	logger           Logger
	hooks            []DispatchHook
	tracing          bool
	logRegistrations bool

	processed *atomic.Int64
	succeeded *atomic.Int64
	unknown   *atomic.Int64
	rejected  *atomic.Int64
	faulted   *atomic.Int64
}

// NewMachine creates a machine with an empty table.
func NewMachine(opts ...Option) *Machine {
	machine := &Machine{
		name:             defaultMachineName,
		table:            NewTable(),
		tracing:          true,
		logRegistrations: true,
		processed:        atomic.NewInt64(0),
		succeeded:        atomic.NewInt64(0),
		unknown:          atomic.NewInt64(0),
		rejected:         atomic.NewInt64(0),
		faulted:          atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt(machine)
	}

	return machine
}

// Name returns the machine name.
func (m *Machine) Name() string {
	return m.name
}

// RegisterTransition adds a row to the table. Registering an existing
// (currentState, event) pair replaces the previous row. The next state is
// not validated.
func (m *Machine) RegisterTransition(currentState, event string, action Action, nextState string) {
	m.table.Insert(currentState, event, action, nextState)

	transitionsRegisteredTotal.WithLabelValues(m.name).Inc()
	tableSize.WithLabelValues(m.name).Set(float64(m.table.Size()))

	if m.logRegistrations {
		m.log(func(l Logger) {
			l.TransitionRegistered(context.Background(), m.name, currentState, event, nextState)
		})
	}
}

// Register initializes each descriptor against this machine.
func (m *Machine) Register(descriptors ...StateDescriptor) {
	for _, descriptor := range descriptors {
		if descriptor == nil {
			continue
		}

		descriptor.Init(m)
	}
}

// AddHook adds a dispatch hook.
func (m *Machine) AddHook(hook DispatchHook) {
	if hook != nil {
		m.hooks = append(m.hooks, hook)
	}
}

// SetLogger replaces the logger. A nil logger disables logging.
func (m *Machine) SetLogger(logger Logger) {
	m.logger = logger
}

// ProcessEvent drives obj with event and reports whether the object was
// advanced. It never panics: a missing row, a rejecting action and a
// faulting action all return false and leave the object's state as it was.
// Panicking loggers and hooks are recovered and do not change the result.
func (m *Machine) ProcessEvent(ctx context.Context, event string, obj *Object) bool {
	return m.Dispatch(ctx, event, obj) == nil
}

// Dispatch is ProcessEvent with the failure cause. A non-nil error is a
// *TransitionError wrapping ErrUnknownTransition, ErrActionRejected,
// ErrActionFault or ErrNilObject.
func (m *Machine) Dispatch(ctx context.Context, event string, obj *Object) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if obj == nil {
		err = WrapTransitionError("", event, "", ErrNilObject)
		m.record(ctx, Outcome{Machine: m.name, Event: event, Err: err}, false)

		return err
	}

	objectID := obj.ID()
	from := obj.CurrentState()
	start := time.Now()
	next := ""
	matched := false

	ctx, span := m.startSpan(ctx, objectID, from, event)

	defer func() {
		finishSpan(span, next, err)

		m.record(ctx, Outcome{
			Machine:  m.name,
			ObjectID: objectID,
			Event:    event,
			From:     from,
			To:       next,
			Err:      err,
			Duration: time.Since(start),
		}, matched)
	}()

	m.log(func(l Logger) {
		l.EventReceived(ctx, m.name, objectID, from, event)
	})

	row, found, err := m.lookup(from, event)
	if err != nil {
		return WrapTransitionError(from, event, "", err)
	}

	if !found {
		return WrapTransitionError(from, event, "", ErrUnknownTransition)
	}

	next = row.NextState
	matched = true

	if err := m.apply(ctx, row, from, event, obj); err != nil {
		return WrapTransitionError(from, event, next, err)
	}

	obj.advance(from, event, next)

	return nil
}

// lookup reads the table, converting a panic from a custom table or hash
// function into ErrActionFault.
func (m *Machine) lookup(state, event string) (row Row, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			row, found, err = Row{}, false, panicError(r, debug.Stack())
		}
	}()

	row, found = m.table.Lookup(state, event)

	return row, found, nil
}

// apply runs the row's action. This is the only place a user action is
// called, so it is the only place its panics need to be recovered.
func (m *Machine) apply(ctx context.Context, row Row, state, event string, obj *Object) (err error) {
	if row.Action == nil {
		return fmt.Errorf("%w: %w", ErrActionFault, ErrNilAction)
	}

	actionCtx := ctx

	if m.tracing {
		var span trace.Span

		actionCtx, span = startActionSpan(ctx, row.Action.Name(), state, event)

		defer func() {
			finishSpan(span, "", err)
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = panicError(r, debug.Stack())
		}
	}()

	return classifyActionError(row.Action.Apply(actionCtx, obj))
}

// record updates counters, metrics, the logger and hooks for a finished
// dispatch. matched reports whether a row was found for the outcome.
func (m *Machine) record(ctx context.Context, outcome Outcome, matched bool) {
	m.processed.Inc()

	reason := Reason(outcome.Err)

	switch reason {
	case ReasonNone:
		m.succeeded.Inc()
	case ReasonUnknownTransition:
		m.unknown.Inc()
	case ReasonActionRejected:
		m.rejected.Inc()
	case ReasonActionFault, ReasonNilObject, ReasonOther:
		m.faulted.Inc()
	}

	state, event := dispatchLabels(outcome, matched)

	eventsProcessedTotal.WithLabelValues(m.name, state, event, outcomeLabel(outcome.Err), reason).Inc()

	dispatchDuration.WithLabelValues(m.name, outcomeLabel(outcome.Err)).Observe(outcome.Duration.Seconds())

	m.log(func(l Logger) {
		if outcome.Err != nil {
			l.TransitionFailed(ctx, m.name, outcome.ObjectID, outcome.From, outcome.Event, outcome.Err)
		} else {
			l.TransitionSucceeded(ctx, m.name, outcome.ObjectID,
				outcome.From, outcome.Event, outcome.To, outcome.Duration)
		}
	})

	for _, hook := range m.hooks {
		m.runHook(ctx, hook, outcome)
	}
}

// runHook calls a hook. A panicking hook is logged and dropped so it cannot
// change the dispatch result.
func (m *Machine) runHook(ctx context.Context, hook DispatchHook, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v\nstack trace:\n%s", ErrPanicRecovery, r, debug.Stack())

			m.log(func(l Logger) {
				l.HookPanicked(ctx, m.name, outcome.ObjectID, outcome.Event, err)
			})
		}
	}()

	hook(ctx, outcome)
}

// log calls fn with the machine's logger, if any. A panicking logger is
// dropped, so logging never changes a dispatch result.
func (m *Machine) log(fn func(Logger)) {
	if m.logger == nil {
		return
	}

	defer func() {
		_ = recover()
	}()

	fn(m.logger)
}

func (m *Machine) startSpan(ctx context.Context, objectID, state, event string) (context.Context, trace.Span) {
	if !m.tracing {
		return noopSpan(ctx)
	}

	return startDispatchSpan(ctx, m.name, objectID, state, event)
}

// Lookup returns the row registered for (currentState, event).
func (m *Machine) Lookup(currentState, event string) (Row, bool) {
	return m.table.Lookup(currentState, event)
}

// Size returns the number of distinct rows.
func (m *Machine) Size() int {
	return m.table.Size()
}

// Entries ranges over all rows in unspecified order.
func (m *Machine) Entries() iter.Seq2[Key, Row] {
	return m.table.Entries()
}

// Table returns the machine's table for read-only introspection.
func (m *Machine) Table() Table {
	return m.table
}

// Stats returns a snapshot of the dispatch counters.
func (m *Machine) Stats() Stats {
	return Stats{
		Processed: m.processed.Load(),
		Succeeded: m.succeeded.Load(),
		Unknown:   m.unknown.Load(),
		Rejected:  m.rejected.Load(),
		Faulted:   m.faulted.Load(),
	}
}
