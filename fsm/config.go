package fsm

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a transition table defined in YAML.
type Config struct {
	Name         string        `json:"name"         yaml:"name"`
	InitialState string        `json:"initialState" yaml:"initialState"`
	States       []StateConfig `json:"states"       yaml:"states"`
}

// StateConfig lists a state's outgoing transitions. A state without
// transitions is terminal.
type StateConfig struct {
	Name        string             `json:"name"        yaml:"name"`
	Transitions []TransitionConfig `json:"transitions" yaml:"transitions"`
}

// TransitionConfig is one (event, action, next state) row.
type TransitionConfig struct {
	Event  string       `json:"event"  yaml:"event"`
	Action ActionConfig `json:"action" yaml:"action"`
	To     string       `json:"to"     yaml:"to"`
}

// ActionConfig names an action builder and its parameters.
type ActionConfig struct {
	Type       string         `json:"type"       yaml:"type"`
	Name       string         `json:"name"       yaml:"name"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

// LoadConfig reads and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes parses and validates a configuration from YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from a filesystem such as embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks the configuration's shape. Targets are not checked
// against the declared states and repeated (state, event) pairs are
// allowed; the last one wins when registered.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	for i, state := range c.States {
		if state.Name == "" {
			return fmt.Errorf("state %d: %w", i, ErrStateNameRequired)
		}

		for j, transition := range state.Transitions {
			if transition.Event == "" {
				return fmt.Errorf("state %s, transition %d: %w", state.Name, j, ErrEventRequired)
			}

			if transition.To == "" {
				return fmt.Errorf("state %s, transition %d: %w", state.Name, j, ErrTransitionToRequired)
			}

			if transition.Action.Type == "" {
				return fmt.Errorf("state %s, transition %d: %w", state.Name, j, ErrActionTypeRequired)
			}
		}
	}

	return nil
}

// Register builds every configured action with factory and registers the
// rows in declaration order. A nil factory uses NewActionFactory.
func (c *Config) Register(r Registrar, factory *ActionFactory) error {
	if factory == nil {
		factory = NewActionFactory()
	}

	for _, state := range c.States {
		for _, transition := range state.Transitions {
			action, err := factory.Create(transition.Action)
			if err != nil {
				return fmt.Errorf("state %s, event %s: %w", state.Name, transition.Event, err)
			}

			r.RegisterTransition(state.Name, transition.Event, action, transition.To)
		}
	}

	return nil
}

// Build creates a machine named after the config and registers its rows.
// Options are applied after the name, so WithName can override it.
func (c *Config) Build(factory *ActionFactory, opts ...Option) (*Machine, error) {
	machine := NewMachine(append([]Option{WithName(c.Name)}, opts...)...)

	if err := c.Register(machine, factory); err != nil {
		return nil, err
	}

	return machine, nil
}

// NewObject creates an object in the configured initial state.
func (c *Config) NewObject(opts ...ObjectOption) *Object {
	return NewObject(c.InitialState, opts...)
}

// Descriptors converts the configuration into state descriptors.
func (c *Config) Descriptors(factory *ActionFactory) ([]StateDescriptor, error) {
	if factory == nil {
		factory = NewActionFactory()
	}

	descriptors := make([]StateDescriptor, 0, len(c.States))

	for _, state := range c.States {
		edges := make([]Edge, 0, len(state.Transitions))

		for _, transition := range state.Transitions {
			action, err := factory.Create(transition.Action)
			if err != nil {
				return nil, fmt.Errorf("state %s, event %s: %w", state.Name, transition.Event, err)
			}

			edges = append(edges, On(transition.Event, action, transition.To))
		}

		descriptors = append(descriptors, NewState(state.Name, edges...))
	}

	return descriptors, nil
}
