package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/events"
	"github.com/logocruncher/logo-cruncher/internal/logging"
	"github.com/logocruncher/logo-cruncher/internal/models"
)

// Unsubscribe releases a completion subscription. It is idempotent; once it
// returns the handler is never invoked again.
type Unsubscribe func()

// Gateway issues typed commands against an Executor.
// Each call is exactly one round trip: no retry, no backoff, and no deadline
// beyond the caller's context.
type Gateway struct {
	exec            Executor
	eventBus        *events.EventBus
	completionEvent string
	logger          *logging.Logger
}

// New creates a Gateway. eventBus receives backend notifications and backs
// SubscribeCompletion; it must not be nil.
func New(exec Executor, eventBus *events.EventBus, logger *logging.Logger) *Gateway {
	return &Gateway{
		exec:            exec,
		eventBus:        eventBus,
		completionEvent: constants.EventGreetFinished,
		logger:          logging.OrNop(logger).Component("gateway"),
	}
}

// SetCompletionEvent changes the notification name SubscribeCompletion
// listens for. Must be called before subscribing.
func (g *Gateway) SetCompletionEvent(name string) {
	if name != "" {
		g.completionEvent = name
	}
}

// CompletionEvent returns the notification name handlers are bound to.
func (g *Gateway) CompletionEvent() string {
	return g.completionEvent
}

type processJSONArgs struct {
	JSON string `json:"json"`
}

type greetArgs struct {
	Name string `json:"name"`
}

type logoListArgs struct {
	Msg string `json:"msg"`
}

// SubmitPayload hands the raw payload text to the backend verbatim and
// returns the job list it produced.
func (g *Gateway) SubmitPayload(ctx context.Context, raw string) ([]models.LogoJob, error) {
	result, err := g.invoke(ctx, constants.CommandProcessJSON, processJSONArgs{JSON: raw})
	if err != nil {
		return nil, err
	}

	var shape struct {
		Logos *[]models.LogoJob `json:"logos"`
	}
	if err := decodeResult(result, &shape); err != nil {
		return nil, malformed(constants.CommandProcessJSON, err)
	}
	if shape.Logos == nil {
		return nil, malformed(constants.CommandProcessJSON, errors.New("missing logos"))
	}
	return *shape.Logos, nil
}

// ListDirectory asks the backend for the paths in its working directory.
func (g *Gateway) ListDirectory(ctx context.Context) ([]string, error) {
	result, err := g.invoke(ctx, constants.CommandGetFileList, nil)
	if err != nil {
		return nil, err
	}

	var paths *[]string
	if err := decodeResult(result, &paths); err != nil {
		return nil, malformed(constants.CommandGetFileList, err)
	}
	if paths == nil {
		return nil, malformed(constants.CommandGetFileList, errors.New("expected a list of paths"))
	}
	return *paths, nil
}

// Greet sends name to the backend and returns its reply.
func (g *Gateway) Greet(ctx context.Context, name string) (string, error) {
	return g.invokeString(ctx, constants.CommandGreet, greetArgs{Name: name})
}

// LogoList sends a directory hint to the backend and returns its reply.
func (g *Gateway) LogoList(ctx context.Context, dir string) (string, error) {
	return g.invokeString(ctx, constants.CommandLogoList, logoListArgs{Msg: dir})
}

// SubscribeCompletion registers handler for the completion notification.
// The handler runs on a dedicated goroutine, one notification at a time.
// Notifications are not ordered with respect to command responses and may
// repeat.
func (g *Gateway) SubscribeCompletion(handler func(payload string)) Unsubscribe {
	name := g.completionEvent
	cancel := g.eventBus.SubscribeFunc(events.EventCompletion, func(ev events.Event) {
		completion, ok := ev.(*events.CompletionEvent)
		if !ok || completion.Name != name {
			return
		}
		handler(completion.Payload)
	})
	g.logger.Debug().Str("event", name).Msg("Completion subscription acquired")

	return Unsubscribe(func() {
		cancel()
	})
}

func (g *Gateway) invokeString(ctx context.Context, command string, args any) (string, error) {
	result, err := g.invoke(ctx, command, args)
	if err != nil {
		return "", err
	}

	var reply *string
	if err := decodeResult(result, &reply); err != nil {
		return "", malformed(command, err)
	}
	if reply == nil {
		return "", malformed(command, errors.New("expected a string"))
	}
	return *reply, nil
}

// invoke performs the round trip and publishes any notifications that came
// back with the response.
func (g *Gateway) invoke(ctx context.Context, command string, args any) (json.RawMessage, error) {
	g.logger.Debug().Str("command", command).Msg("Invoking backend command")

	resp, err := g.exec.Invoke(ctx, command, args)
	if err != nil {
		g.logger.Debug().Str("command", command).Err(err).Msg("Backend command failed")
		return nil, newCommandError(command, err)
	}
	if resp == nil {
		return nil, malformed(command, errors.New("no response"))
	}

	for _, n := range resp.Events {
		g.eventBus.PublishCompletion(n.Name, n.Payload)
	}
	return resp.Result, nil
}

func decodeResult(result json.RawMessage, v any) error {
	if len(result) == 0 {
		return errors.New("empty result")
	}
	return json.Unmarshal(result, v)
}
