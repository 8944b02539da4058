package conflict

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kwandrews/drydock/internal/errdefs"
)

// AutoRemove removes every collision without asking. Used when the
// operator passed --overwrite.
func AutoRemove(string, Candidate) (Decision, error) {
	return DecisionRemove, nil
}

// AutoFail turns the first collision into a hard error. Used for
// headless runs without --overwrite, where nobody can answer a prompt.
func AutoFail(vmName string, c Candidate) (Decision, error) {
	return DecisionCancel, errdefs.New(errdefs.KindConflict, "conflict",
		"a VM defined on the host machine %q shares a conflicting attribute: value, %q: %q",
		vmName, c.Attribute, c.Value)
}

// Prompt asks on the terminal. Unrecognized input re-asks the same
// question; no removal already applied is ever repeated or undone.
func Prompt(in io.Reader, out io.Writer) Decider {
	reader := bufio.NewReader(in)
	return func(vmName string, c Candidate) (Decision, error) {
		for {
			fmt.Fprintf(out,
				"A VM defined on the host machine %q shares a conflicting attribute: value, %q: %q. Remove active VM %q? [y/skip/cancel]: ",
				vmName, c.Attribute, c.Value, vmName)

			// A closed stdin means nobody can answer; cancel cleanly
			// rather than erroring.
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return DecisionCancel, nil
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes", "remove":
				return DecisionRemove, nil
			case "skip", "s":
				return DecisionSkip, nil
			case "cancel", "quit", "q":
				return DecisionCancel, nil
			}
			// anything else: ask again
		}
	}
}
