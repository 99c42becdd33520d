package command

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage marks malformed command arguments.
	ErrUsage = errors.New("usage")
	// ErrUnknownCommand is returned for names the dispatcher does not know.
	ErrUnknownCommand = errors.New("unknown command")
)

// UsageError reports bad arguments together with the expected form.
type UsageError struct {
	Command string
	Usage   string
	Err     error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (usage: %s)", e.Command, e.Err, e.Usage)
	}
	return "usage: " + e.Usage
}

func (e *UsageError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUsage, e.Err}
	}
	return []error{ErrUsage}
}
