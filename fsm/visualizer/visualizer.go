// Package visualizer renders transition tables as Mermaid state diagrams.
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/fsm"
)

// Visualizer errors.
var (
	ErrTableNil  = errors.New("table cannot be nil")
	ErrConfigNil = errors.New("config cannot be nil")
)

// GenerateMermaid converts a table to a Mermaid state diagram.
func GenerateMermaid(table fsm.Table) (string, error) {
	return GenerateMermaidWithOptions(table, DefaultOptions())
}

// GenerateMermaidFromFile loads a YAML table definition and renders it. The
// configured initial state is marked as the entry point.
func GenerateMermaidFromFile(path string) (string, error) {
	config, err := fsm.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaidFromConfig(config, DefaultOptions())
}

// GenerateMermaidFromConfig renders a configuration without building actions
// for it, so custom action types need not be registered.
func GenerateMermaidFromConfig(config *fsm.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	table := fsm.NewTable()

	for _, state := range config.States {
		for _, transition := range state.Transitions {
			name := transition.Action.Name
			if name == "" {
				name = transition.Action.Type
			}

			table.Insert(state.Name, transition.Event, fsm.Always(name), transition.To)
		}
	}

	if opts.InitialState == "" {
		opts.InitialState = config.InitialState
	}

	declared := make([]string, 0, len(config.States))
	for _, state := range config.States {
		declared = append(declared, state.Name)
	}

	return render(table, declared, opts), nil
}

// GenerateMermaidWithOptions converts a table to a Mermaid state diagram
// with custom options. Output is sorted so it is stable between runs.
func GenerateMermaidWithOptions(table fsm.Table, opts Options) (string, error) {
	if table == nil {
		return "", ErrTableNil
	}

	return render(table, nil, opts), nil
}

// render draws the table. Declared states are drawn even when no row
// mentions them.
func render(table fsm.Table, declared []string, opts Options) string {
	if opts.Direction == "" {
		opts.Direction = "TD"
	}

	outgoing := make(map[string]bool)
	states := make(map[string]bool)
	edges := make([]string, 0, table.Size())

	for key, row := range table.Entries() {
		outgoing[key.State] = true
		states[key.State] = true
		states[row.NextState] = true

		label := key.Event
		if opts.ShowActions {
			label = fmt.Sprintf("%s [%s]", key.Event, row.ActionName())
		}

		edges = append(edges, fmt.Sprintf("    %s --> %s: %s\n", key.State, row.NextState, label))
	}

	if opts.InitialState != "" {
		states[opts.InitialState] = true
	}

	for _, name := range declared {
		states[name] = true
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}

	natsort.Sort(names)
	natsort.Sort(edges)

	highlightMap := make(map[string]bool)
	for _, state := range opts.HighlightPath {
		highlightMap[state] = true
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	fmt.Fprintf(&sb, "stateDiagram-%s\n", opts.Direction)

	if opts.InitialState != "" {
		fmt.Fprintf(&sb, "    [*] --> %s\n", opts.InitialState)
	}

	for _, edge := range edges {
		sb.WriteString(edge)
	}

	for _, name := range names {
		switch {
		case highlightMap[name]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", name)
		case !outgoing[name]:
			fmt.Fprintf(&sb, "    class %s finalState\n", name)
		}

		if !outgoing[name] {
			fmt.Fprintf(&sb, "    %s --> [*]\n", name)
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef finalState fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	sb.WriteString("```\n")

	return sb.String()
}
