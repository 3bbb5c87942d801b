// Package backend implements the processing backend in process: the command
// set the client gateway speaks, runnable either directly as an Executor or
// as a one-shot command server over stdin/stdout.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/gateway"
	"github.com/logocruncher/logo-cruncher/internal/jobs"
	"github.com/logocruncher/logo-cruncher/internal/localfs"
	"github.com/logocruncher/logo-cruncher/internal/logging"
	"github.com/logocruncher/logo-cruncher/internal/models"
	"github.com/logocruncher/logo-cruncher/internal/payload"
)

// Options configures the local backend.
type Options struct {
	// FilesDir is the working directory served by get_file_list.
	FilesDir      string
	IncludeHidden bool

	// BackupPath receives a copy of every job list produced by process_json.
	// Empty disables the backup.
	BackupPath string

	// CompletionEvent is the notification emitted after greet.
	CompletionEvent string
}

// OptionsFromConfig derives backend options from the client configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		FilesDir:        cfg.Files.Directory,
		IncludeHidden:   cfg.Files.IncludeHidden,
		CompletionEvent: cfg.Events.Completion,
	}
	if cfg.Jobs.Backup {
		opts.BackupPath = cfg.Jobs.BackupPath
	}
	return opts
}

// ErrUnknownCommand is returned for command names the backend does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// Local serves backend commands in process. It implements gateway.Executor.
type Local struct {
	opts   Options
	logger *logging.Logger
}

// NewLocal creates a Local backend.
func NewLocal(opts Options, logger *logging.Logger) *Local {
	if opts.CompletionEvent == "" {
		opts.CompletionEvent = constants.EventGreetFinished
	}
	return &Local{
		opts:   opts,
		logger: logging.OrNop(logger).Component("backend"),
	}
}

type processJSONArgs struct {
	JSON *string `json:"json"`
}

type greetArgs struct {
	Name *string `json:"name"`
}

type logoListArgs struct {
	Msg *string `json:"msg"`
}

// Invoke implements gateway.Executor. Arguments go through their JSON form so
// the in-process path accepts exactly what the wire path accepts.
func (l *Local) Invoke(ctx context.Context, command string, args any) (*gateway.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}

	switch command {
	case constants.CommandProcessJSON:
		var a processJSONArgs
		if err := decodeArgs(command, raw, &a); err != nil {
			return nil, err
		}
		if a.JSON == nil {
			return nil, missingArg(command, "json")
		}
		result, err := l.processJSON(*a.JSON)
		if err != nil {
			return nil, err
		}
		return reply(result, nil)

	case constants.CommandGreet:
		var a greetArgs
		if err := decodeArgs(command, raw, &a); err != nil {
			return nil, err
		}
		if a.Name == nil {
			return nil, missingArg(command, "name")
		}
		greeting := Greeting(*a.Name)
		l.logger.Info().Int("name_length", len(*a.Name)).Msg("Greeted")
		return reply(greeting, []gateway.Notification{{Name: l.opts.CompletionEvent, Payload: greeting}})

	case constants.CommandLogoList:
		var a logoListArgs
		if err := decodeArgs(command, raw, &a); err != nil {
			return nil, err
		}
		if a.Msg == nil {
			return nil, missingArg(command, "msg")
		}
		l.logger.Info().Str("dir", *a.Msg).Msg("Logo list requested")
		return reply(LogoListReply(*a.Msg), nil)

	case constants.CommandGetFileList:
		paths, err := localfs.ListFilePaths(ctx, l.opts.FilesDir, l.opts.IncludeHidden)
		if err != nil {
			return nil, err
		}
		l.logger.Debug().Str("dir", l.opts.FilesDir).Int("files", len(paths)).Msg("Listed working directory")
		return reply(paths, nil)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// processJSON parses the payload and derives one job per item.
func (l *Local) processJSON(raw string) (*models.Jobs, error) {
	root, err := payload.Parse(raw)
	if err != nil {
		return nil, err
	}

	logos, skipped := jobs.FromItems(root)
	if len(skipped) > 0 {
		l.logger.Debug().Ints64("item_ids", skipped).Msg("Items without an offline-resolvable URL skipped")
	}
	l.logger.Info().
		Int("items", len(root.Data.Items)).
		Int("jobs", len(logos)).
		Msg("Payload processed")

	if l.opts.BackupPath != "" {
		if err := config.SaveJobsBackup(l.opts.BackupPath, logos); err != nil {
			return nil, fmt.Errorf("failed to save job backup: %w", err)
		}
		l.logger.Debug().Str("path", l.opts.BackupPath).Msg("Job backup written")
	}

	return &models.Jobs{Logos: logos}, nil
}

// Greeting is the reply to the greet command.
func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

// LogoListReply is the reply to the legacy logo_list command.
func LogoListReply(dir string) string {
	return fmt.Sprintf("Listing logo files in: %s", dir)
}

func reply(result any, events []gateway.Notification) (*gateway.Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &gateway.Response{Result: data, Events: events}, nil
}

func encodeArgs(args any) ([]byte, error) {
	if args == nil {
		return []byte("{}"), nil
	}
	if raw, ok := args.(json.RawMessage); ok {
		if len(raw) == 0 {
			return []byte("{}"), nil
		}
		return raw, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}
	return data, nil
}

func decodeArgs(command string, raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", command, err)
	}
	return nil
}

func missingArg(command, name string) error {
	return fmt.Errorf("invalid arguments for %s: missing %q", command, name)
}
