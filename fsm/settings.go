package fsm

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings holds machine options read from the environment. An empty Name
// leaves the machine name alone.
type Settings struct {
	Name             string `env:"FSM_NAME"`
	ThreadSafe       bool   `env:"FSM_THREAD_SAFE"       envDefault:"false"`
	Tracing          bool   `env:"FSM_TRACING"           envDefault:"true"`
	LogRegistrations bool   `env:"FSM_LOG_REGISTRATIONS" envDefault:"true"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var settings Settings

	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse fsm settings: %w", err)
	}

	return settings, nil
}

// Options converts the settings into machine options.
func (s Settings) Options() []Option {
	opts := []Option{
		WithName(s.Name),
		WithTracing(s.Tracing),
		WithRegistrationLogging(s.LogRegistrations),
	}

	if s.ThreadSafe {
		opts = append(opts, WithThreadSafeTable())
	}

	return opts
}
