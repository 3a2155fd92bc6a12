// Package prompt implements the human-in-the-loop pauses the import
// flow depends on: "press Enter to continue" holds and retry/continue/
// abort decisions after element wait timeouts.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Decision is the user's answer to a timeout prompt.
type Decision int

// Timeout prompt decisions.
const (
	// Retry repeats the wait that timed out.
	Retry Decision = iota

	// Continue gives up on the wait and lets the caller proceed,
	// typically failing the current step.
	Continue

	// Abort stops processing the current album entirely.
	Abort
)

// Prompter asks the user for input. The import pipeline takes this as
// an interface so tests can script answers.
//
// Design decision: prompting stays on plain stdin reads rather than a
// TUI framework. The pauses happen mid-pipeline while the user's focus
// is on the browser window, not the terminal; a blocking one-line read
// is exactly the right shape.
type Prompter interface {
	// Pause rings the terminal bell, prints the message, and blocks
	// until the user presses Enter.
	Pause(message string) error

	// Decide rings the terminal bell, prints the message, and asks for
	// r(etry) / c(ontinue) / a(bort). Unrecognized input re-asks.
	Decide(message string) (Decision, error)
}

// Terminal is a Prompter backed by an io.Reader and io.Writer,
// normally os.Stdin and os.Stderr.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	// Bell disables the terminal bell when false, for terminals where
	// the audible cue is unwelcome.
	Bell bool
}

// NewTerminal creates a Terminal prompter reading from in and writing
// to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:   bufio.NewReader(in),
		out:  out,
		Bell: true,
	}
}

// Pause implements Prompter.
func (t *Terminal) Pause(message string) error {
	t.ring()
	fmt.Fprintf(t.out, "\n!!! %s\nPress Enter to continue... ", message)
	_, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read prompt input: %w", err)
	}
	fmt.Fprintln(t.out)
	return nil
}

// Decide implements Prompter.
func (t *Terminal) Decide(message string) (Decision, error) {
	t.ring()
	for {
		fmt.Fprintf(t.out, "\n!!! %s\n[r]etry / [c]ontinue / [a]bort? ", message)
		line, err := t.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return Abort, fmt.Errorf("failed to read prompt input: %w", err)
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "" && err == io.EOF {
			// Input is gone entirely; abort rather than loop on a
			// default nobody chose.
			return Abort, nil
		}

		switch answer {
		case "r", "retry", "":
			// Enter defaults to retry; it is the choice that never
			// loses work.
			return Retry, nil
		case "c", "continue":
			return Continue, nil
		case "a", "abort":
			return Abort, nil
		}

		if err == io.EOF {
			// No more input to re-ask with.
			return Abort, nil
		}
		fmt.Fprintln(t.out, "Please answer r, c, or a.")
	}
}

// ring writes the terminal bell character.
func (t *Terminal) ring() {
	if t.Bell {
		fmt.Fprint(t.out, "\a")
	}
}
