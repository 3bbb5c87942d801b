package gateway

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a response that did not match the shape its
// command promises.
var ErrMalformedResponse = errors.New("malformed response")

// CommandError is the single error kind surfaced by the gateway.
// Error returns the boundary's message verbatim so it can be shown to the
// user unchanged.
type CommandError struct {
	Command string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// newCommandError wraps a boundary failure.
func newCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Message: err.Error(), Err: err}
}

// malformed reports a response that failed typed validation.
func malformed(command string, cause error) *CommandError {
	return &CommandError{
		Command: command,
		Message: fmt.Sprintf("malformed %s response: %v", command, cause),
		Err:     fmt.Errorf("%w: %v", ErrMalformedResponse, cause),
	}
}

// AsCommandError extracts a *CommandError from err.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}
