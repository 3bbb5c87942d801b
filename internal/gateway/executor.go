// Package gateway is the typed command boundary between the client and the
// processing backend. It issues named commands through an Executor, checks
// every response against the shape the command promises, and fans backend
// notifications out on the event bus.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/logocruncher/logo-cruncher/internal/constants"
)

// Notification is a named event delivered by the backend alongside (or
// independently of) a command response.
type Notification struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

// Response is the undecoded outcome of one successful command round trip.
type Response struct {
	Result json.RawMessage
	Events []Notification
}

// Executor performs one round trip to the backend. Implementations return a
// plain error whose message is the backend's failure text; the gateway wraps
// it into a CommandError. Invoke must honour ctx cancellation.
type Executor interface {
	Invoke(ctx context.Context, command string, args any) (*Response, error)
}

// Envelope is the wire form shared by the process and HTTP executors and by
// the backend command server.
type Envelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Events []Notification  `json:"events,omitempty"`
}

// ErrEmptyEnvelope is returned when the backend produced no output at all.
var ErrEmptyEnvelope = errors.New("empty response envelope")

// DecodeEnvelope reads a single envelope from r, bounded by MaxEnvelopeBytes.
func DecodeEnvelope(r io.Reader) (*Envelope, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxEnvelopeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response envelope: %w", err)
	}
	if len(data) > constants.MaxEnvelopeBytes {
		return nil, fmt.Errorf("response envelope exceeds %d bytes", constants.MaxEnvelopeBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyEnvelope
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid response envelope: %w", err)
	}
	return &env, nil
}

// Response converts a decoded envelope to a Response, or to an error carrying
// the backend's message verbatim.
func (e *Envelope) Response() (*Response, error) {
	if e.Error != "" {
		return nil, errors.New(e.Error)
	}
	return &Response{Result: e.Result, Events: e.Events}, nil
}

// EnvelopeFor builds the envelope a backend writes for a command outcome.
func EnvelopeFor(resp *Response, err error) *Envelope {
	if err != nil {
		return &Envelope{Error: err.Error()}
	}
	if resp == nil {
		return &Envelope{}
	}
	return &Envelope{Result: resp.Result, Events: resp.Events}
}

// marshalArgs encodes command arguments. Commands without input send {}.
func marshalArgs(args any) ([]byte, error) {
	if args == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command arguments: %w", err)
	}
	return data, nil
}
