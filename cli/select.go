// Package cli holds the interactive prompts used by fsmctl.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/manifoldco/promptui"
)

// DoneChoice is the first item of every event menu. Picking it ends the run.
const DoneChoice = "[Done]"

// AvailableEvents lists the events registered for state, in natural order.
func AvailableEvents(table fsm.Table, state string) []string {
	var events []string

	for key := range table.Entries() {
		if key.State == state {
			events = append(events, key.Event)
		}
	}

	natsort.Sort(events)

	return events
}

// EventMenu returns the menu items shown for state.
func EventMenu(table fsm.Table, state string) []string {
	return append([]string{DoneChoice}, AvailableEvents(table, state)...)
}

// SelectEvent asks the user which event to send an object in state. It
// returns ok=false when the state has no events, the user picks DoneChoice,
// or the prompt is interrupted.
func SelectEvent(table fsm.Table, state string) (string, bool, error) {
	items := EventMenu(table, state)
	if len(items) == 1 {
		return "", false, nil
	}

	sel := &promptui.Select{
		Label: fmt.Sprintf("Event for %s", state),
		Items: items,
		Searcher: func(input string, index int) bool {
			if index == 0 || len(input) == 0 {
				return false
			}

			return strings.HasPrefix(strings.ToLower(items[index]), strings.ToLower(input))
		},
	}

	idx, value, err := sel.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", false, nil
		}

		return "", false, err
	}

	if idx == 0 {
		return "", false, nil
	}

	return value, true, nil
}
