package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/logocruncher/logo-cruncher/internal/logging"
)

// ProcessExecutor runs one backend process per command:
//
//	<program> [args...] <command>
//
// The JSON arguments are written to stdin and a single Envelope is read from
// stdout.
type ProcessExecutor struct {
	Program string
	Args    []string
	// Env is appended to the current environment.
	Env []string
	// Timeout bounds a single process run. Zero leaves the caller's context
	// as the only deadline.
	Timeout time.Duration

	logger *logging.Logger
}

// NewProcessExecutor creates a ProcessExecutor for program.
func NewProcessExecutor(program string, args []string, logger *logging.Logger) *ProcessExecutor {
	return &ProcessExecutor{
		Program: program,
		Args:    append([]string(nil), args...),
		logger:  logging.OrNop(logger).Component("process-executor"),
	}
}

// Invoke implements Executor.
func (p *ProcessExecutor) Invoke(ctx context.Context, command string, args any) (*Response, error) {
	if p.Program == "" {
		return nil, errors.New("no backend program configured")
	}

	input, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	argv := append(append([]string(nil), p.Args...), command)
	cmd := exec.CommandContext(ctx, p.Program, argv...)
	cmd.Stdin = bytes.NewReader(input)
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	p.logger.Debug().
		Str("command", command).
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Msg("Backend process finished")

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	env, decodeErr := DecodeEnvelope(&stdout)
	if decodeErr == nil && env.Error != "" {
		return nil, errors.New(env.Error)
	}

	if runErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("backend process failed: %w", runErr)
	}

	if decodeErr != nil {
		return nil, decodeErr
	}
	return env.Response()
}
