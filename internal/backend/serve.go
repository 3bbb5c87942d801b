package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/gateway"
)

// Serve answers a single command: it reads the JSON arguments from in,
// runs the command and writes one envelope to out. A command failure is
// reported inside the envelope and also returned so the caller can set a
// non-zero exit status.
func (l *Local) Serve(ctx context.Context, command string, in io.Reader, out io.Writer) error {
	input, err := io.ReadAll(io.LimitReader(in, constants.MaxEnvelopeBytes))
	if err != nil {
		return fmt.Errorf("failed to read arguments: %w", err)
	}

	var args json.RawMessage
	if len(bytes.TrimSpace(input)) > 0 {
		if !json.Valid(input) {
			cmdErr := fmt.Errorf("invalid arguments for %s: not valid JSON", command)
			return writeEnvelope(out, gateway.EnvelopeFor(nil, cmdErr), cmdErr)
		}
		args = json.RawMessage(input)
	}

	resp, cmdErr := l.Invoke(ctx, command, args)
	return writeEnvelope(out, gateway.EnvelopeFor(resp, cmdErr), cmdErr)
}

func writeEnvelope(out io.Writer, env *gateway.Envelope, cmdErr error) error {
	if err := json.NewEncoder(out).Encode(env); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return cmdErr
}
