package fsm

import (
	"fmt"
	"io"

	"facette.io/natsort"
)

// Print writes a human-readable dump of every registered row to w. Rows
// are sorted in natural order so the output is stable between runs.
func (m *Machine) Print(w io.Writer) error {
	lines := make([]string, 0, m.table.Size())

	for key, row := range m.table.Entries() {
		lines = append(lines, fmt.Sprintf("  %s --%s--> %s [%s]",
			key.State, key.Event, row.NextState, row.ActionName()))
	}

	natsort.Sort(lines)

	if _, err := fmt.Fprintf(w, "machine %s: %d transitions\n", m.name, len(lines)); err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
