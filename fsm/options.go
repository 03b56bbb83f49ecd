package fsm

import "log/slog"

const defaultMachineName = "default"

// Option configures a Machine.
type Option func(*Machine)

// WithName sets the machine name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(m *Machine) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLogger installs a Logger. Without one the machine logs nothing.
func WithLogger(logger Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithSlog installs a DefaultLogger backed by the given slog.Logger.
func WithSlog(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = NewSlogLogger(logger)
	}
}

// WithTable replaces the default table. Mostly useful with
// NewTableWithHash.
func WithTable(table Table) Option {
	return func(m *Machine) {
		if table != nil {
			m.table = table
		}
	}
}

// WithThreadSafeTable guards the table with a RWMutex. Apply it after
// WithTable when both are used.
func WithThreadSafeTable() Option {
	return func(m *Machine) {
		m.table = NewThreadSafeTable(m.table)
	}
}

// WithTracing enables or disables OpenTelemetry spans. Enabled by default.
func WithTracing(enabled bool) Option {
	return func(m *Machine) {
		m.tracing = enabled
	}
}

// WithRegistrationLogging enables or disables logging of each
// RegisterTransition call. Enabled by default.
func WithRegistrationLogging(enabled bool) Option {
	return func(m *Machine) {
		m.logRegistrations = enabled
	}
}

// WithHook adds a dispatch hook.
func WithHook(hook DispatchHook) Option {
	return func(m *Machine) {
		if hook != nil {
			m.hooks = append(m.hooks, hook)
		}
	}
}
