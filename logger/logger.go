// Package logger configures process-wide slog output for programs built on
// the fsm packages.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
)

// configMutex serializes ConfigureLoggingWithOptions, which replaces
// slog.Default and log.Default.
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

// ErrInvalidLogOutput is returned when LOG_OUTPUT names an unknown destination.
var ErrInvalidLogOutput = errors.New("invalid log output")

// Config is the environment-driven part of the logging setup.
type Config struct {
	JSON      bool       `env:"LOG_JSON"   envDefault:"false"`
	Level     slog.Level `env:"LOG_LEVEL"  envDefault:"INFO"`
	Output    string     `env:"LOG_OUTPUT" envDefault:"stdout"`
	AddSource bool       `env:"LOG_SOURCE" envDefault:"false"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse logging config: %w", err)
	}

	return cfg, nil
}

// Options is used to configure logging.
type Options struct {
	App       string
	JSON      bool
	MinLevel  slog.Level
	AddSource bool
	Output    io.Writer

	// Handlers receive every record in addition to the main handler, for
	// example an OpenTelemetry log bridge.
	Handlers []slog.Handler
}

// Option is a functional option for ConfigureLogging.
type Option func(*Options)

// WithOutput overrides the output writer.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// WithLevel overrides the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.MinLevel = level
	}
}

// WithHandler adds a handler that receives a copy of every record.
func WithHandler(handler slog.Handler) Option {
	return func(o *Options) {
		if handler != nil {
			o.Handlers = append(o.Handlers, handler)
		}
	}
}

// ConfigureLogging reads LOG_JSON, LOG_LEVEL, LOG_OUTPUT and LOG_SOURCE,
// applies opts and installs the result as the default logger.
func ConfigureLogging(app string, opts ...Option) (*slog.Logger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	output, err := outputFor(cfg.Output)
	if err != nil {
		return nil, err
	}

	options := Options{
		App:       app,
		JSON:      cfg.JSON,
		MinLevel:  cfg.Level,
		AddSource: cfg.AddSource,
		Output:    output,
	}

	for _, o := range opts {
		o(&options)
	}

	return ConfigureLoggingWithOptions(options), nil
}

func outputFor(name string) (io.Writer, error) {
	switch name {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, name)
	}
}

// ConfigureLoggingWithOptions installs a logger built from opts as both the
// slog and the legacy log default, and returns it.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.MinLevel,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler

	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	if len(opts.Handlers) > 0 {
		handler = newFanoutHandler(append([]slog.Handler{handler}, opts.Handlers...)...)
	}

	handler = newErrorAttrHandler(handler)

	logger := slog.New(handler)
	if opts.App != "" {
		logger = logger.With("app", opts.App)
	}

	slog.SetDefault(logger)

	// Third-party code using the log package ends up in the same place.
	def := log.Default()
	*def = *slog.NewLogLogger(logger.Handler(), slog.LevelInfo)

	return logger
}

// With returns a context carrying extra key-value pairs for Get.
func With(ctx context.Context, values ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(values) == 0 {
		return ctx
	}

	vals := append(getValues(ctx), values...)

	return context.WithValue(ctx, contextKey("loggerValues"), vals)
}

// Get returns the default logger with any values added via With.
func Get(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if vals := getValues(ctx); len(vals) > 0 {
		logger = logger.With(vals...)
	}

	return logger
}

func getValues(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	vals, ok := ctx.Value(contextKey("loggerValues")).([]any)
	if !ok {
		return nil
	}

	// Copy so appends in With never share a backing array.
	out := make([]any, len(vals))
	copy(out, vals)

	return out
}
