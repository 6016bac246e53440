package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedKind = errors.New("fetch: unsupported source kind")
	ErrSourceMissing   = errors.New("fetch: source path does not exist")
	ErrWorkspaceRoot   = errors.New("fetch: workspace root is required")
)

// CommandError captures a failed external command and its combined output.
type CommandError struct {
	Operation string
	Command   string
	Output    string
	Err       error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("fetch: %s (%s): %v", e.Operation, e.Command, e.Err)
	}
	return fmt.Sprintf("fetch: %s (%s): %v: %s", e.Operation, e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error { return e.Err }
