package dialogue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoScript is returned when a session is created without a script.
	ErrNoScript = errors.New("dialogue session requires a script")

	// ErrParse marks malformed command arguments.
	ErrParse = errors.New("malformed command arguments")

	// ErrLookup marks a failed registry lookup or an impossible selection.
	ErrLookup = errors.New("command lookup failed")
)

// CommandError wraps a failure executing a single command line.
type CommandError struct {
	Verb string
	Args []string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q (%s): %v", e.Verb, strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
