package main

import (
	"errors"
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/demo"
	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/fsm/batch"
	"github.com/amp-labs/amp-fsm/fsm/visualizer"
	"github.com/spf13/cobra"
)

var errEventsRequired = errors.New("no events given; pass events or use --interactive")

func (a *app) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print [config.yaml]",
		Short: "Print every registered transition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			machine, _, err := a.loadMachine(configArg(args))
			if err != nil {
				return err
			}

			return machine.Print(a.out)
		},
	}
}

func (a *app) mermaidCmd() *cobra.Command {
	var (
		direction string
		noActions bool
		highlight []string
	)

	cmd := &cobra.Command{
		Use:   "mermaid [config.yaml]",
		Short: "Render the transition table as a Mermaid state diagram",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			machine, initial, err := a.loadMachine(configArg(args))
			if err != nil {
				return err
			}

			opts := visualizer.DefaultOptions().
				WithDirection(direction).
				WithShowActions(!noActions).
				WithInitialState(initial).
				WithHighlightPath(highlight)

			diagram, err := visualizer.GenerateMermaidWithOptions(machine.Table(), opts)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(a.out, diagram)

			return err
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "TD", "diagram direction (TD or LR)")
	cmd.Flags().BoolVar(&noActions, "no-actions", false, "omit action names from edge labels")
	cmd.Flags().StringSliceVar(&highlight, "highlight", nil, "states to highlight")

	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var (
		configPath  string
		interactive bool
		keepGoing   bool
	)

	cmd := &cobra.Command{
		Use:   "run [events...]",
		Short: "Drive one object through a list of events",
		RunE: func(cmd *cobra.Command, events []string) error {
			machine, initial, err := a.loadMachine(configPath)
			if err != nil {
				return err
			}

			if len(events) == 0 && !interactive {
				return errEventsRequired
			}

			obj := fsm.NewObject(initial)
			ctx := cmd.Context()

			fmt.Fprintf(a.out, "object %s starts in %s\n", obj.ID(), obj.CurrentState())

			for _, event := range events {
				if !a.step(cmd, machine, obj, event) && !keepGoing {
					break
				}
			}

			for interactive {
				event, ok, err := a.chooser(machine.Table(), obj.CurrentState())
				if err != nil {
					return err
				}

				if !ok || ctx.Err() != nil {
					break
				}

				a.step(cmd, machine, obj, event)
			}

			fmt.Fprintf(a.out, "object %s ends in %s\n", obj.ID(), obj.CurrentState())

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML table definition (default: demo machine)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick further events from a menu")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a refused event")

	return cmd
}

// step dispatches one event and reports the result.
func (a *app) step(cmd *cobra.Command, machine *fsm.Machine, obj *fsm.Object, event string) bool {
	from := obj.CurrentState()

	if err := machine.Dispatch(cmd.Context(), event, obj); err != nil {
		fmt.Fprintf(a.out, "  %s --%s--> refused (%s)\n", from, event, fsm.Reason(err))

		return false
	}

	fmt.Fprintf(a.out, "  %s --%s--> %s\n", from, event, obj.CurrentState())

	return true
}

func (a *app) batchCmd() *cobra.Command {
	var (
		configPath string
		objects    int
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "batch events...",
		Short: "Drive many objects through the same events concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, events []string) error {
			machine, initial, err := a.loadMachine(configPath)
			if err != nil {
				return err
			}

			jobs := make([]batch.Job, 0, objects)
			for range objects {
				jobs = append(jobs, batch.Job{Object: fsm.NewObject(initial), Events: events})
			}

			results := batch.NewDriver(machine, batch.WithWorkers(workers)).Run(cmd.Context(), jobs)

			finals := make(map[string]int)
			failed := 0

			for _, result := range results {
				finals[result.Object.CurrentState()]++

				if result.Err != nil {
					failed++
				}
			}

			fmt.Fprintf(a.out, "%d objects, %d failed\n", len(results), failed)

			states := make([]string, 0, len(finals))
			for state := range finals {
				states = append(states, state)
			}

			natsort.Sort(states)

			for _, state := range states {
				fmt.Fprintf(a.out, "  %s: %d\n", state, finals[state])
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML table definition (default: demo machine)")
	cmd.Flags().IntVarP(&objects, "objects", "n", 100, "number of objects")
	cmd.Flags().IntVarP(&workers, "workers", "w", 10, "worker pool size")

	return cmd
}

func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the three demo scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			machine, _, err := a.loadMachine("")
			if err != nil {
				return err
			}

			if err := machine.Print(a.out); err != nil {
				return err
			}

			scenarios := []struct {
				name   string
				start  string
				events []string
				want   string
			}{
				{"initial to final", demo.Initial, []string{demo.EventOne}, demo.Final},
				{"initial to intermediate to final", demo.Initial, []string{demo.EventTwo, demo.EventThree}, demo.Final},
				{"final accepts nothing", demo.Final, []string{demo.EventOne}, demo.Final},
			}

			var failures []string

			for _, scenario := range scenarios {
				fmt.Fprintf(a.out, "%s:\n", scenario.name)

				obj := fsm.NewObject(scenario.start)
				for _, event := range scenario.events {
					a.step(cmd, machine, obj, event)
				}

				if obj.CurrentState() != scenario.want {
					failures = append(failures, scenario.name)
				}
			}

			if len(failures) > 0 {
				return fmt.Errorf("scenarios ended in the wrong state: %s", strings.Join(failures, ", "))
			}

			return nil
		},
	}
}
