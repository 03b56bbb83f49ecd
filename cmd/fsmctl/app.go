package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/demo"
	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// eventChooser picks the next event for an interactive run.
type eventChooser func(table fsm.Table, state string) (string, bool, error)

type app struct {
	out         io.Writer
	chooser     eventChooser
	telemetry   *telemetry.Telemetry
	skipSetup   bool
	dumpMetrics bool
}

func newApp(out io.Writer) *app {
	return &app{
		out:     out,
		chooser: cli.SelectEvent,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fsmctl",
		Short:         "Inspect and drive table-driven state machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	root.SetOut(a.out)
	root.PersistentFlags().BoolVar(&a.dumpMetrics, "metrics", false,
		"print the fsm Prometheus metrics after the command")

	root.AddCommand(
		a.printCmd(),
		a.mermaidCmd(),
		a.runCmd(),
		a.batchCmd(),
		a.demoCmd(),
	)

	return root
}

// setup configures logging and telemetry from the environment.
func (a *app) setup(ctx context.Context) error {
	if a.skipSetup {
		return nil
	}

	config, err := telemetry.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	a.telemetry, err = telemetry.Initialize(ctx, config)
	if err != nil {
		return err
	}

	_, err = logger.ConfigureLogging("fsmctl", logger.WithHandler(a.telemetry.LogHandler()))

	return err
}

func (a *app) teardown(ctx context.Context) error {
	if a.dumpMetrics {
		if err := a.writeMetrics(); err != nil {
			return err
		}
	}

	return a.telemetry.Shutdown(ctx)
}

// loadMachine builds the machine for path, or the demo machine when path is
// empty. It returns the state new objects start in.
func (a *app) loadMachine(path string) (*fsm.Machine, string, error) {
	settings, err := fsm.LoadSettings()
	if err != nil {
		return nil, "", err
	}

	opts := append([]fsm.Option{fsm.WithSlog(slog.Default())}, settings.Options()...)

	if path == "" {
		return demo.NewMachine(opts...), demo.Initial, nil
	}

	config, err := fsm.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}

	machine, err := config.Build(nil, opts...)
	if err != nil {
		return nil, "", err
	}

	return machine, config.InitialState, nil
}

func (a *app) writeMetrics() error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "fsm_") {
			continue
		}

		if _, err := expfmt.MetricFamilyToText(a.out, family); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

func configArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
