// Package core wires the client together: configuration, the command
// boundary, the view state store and the two reconciliation flows.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/logocruncher/logo-cruncher/internal/backend"
	"github.com/logocruncher/logo-cruncher/internal/classify"
	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/events"
	"github.com/logocruncher/logo-cruncher/internal/gateway"
	"github.com/logocruncher/logo-cruncher/internal/logging"
	"github.com/logocruncher/logo-cruncher/internal/models"
	"github.com/logocruncher/logo-cruncher/internal/reconcile"
	"github.com/logocruncher/logo-cruncher/internal/state"
)

// Lifecycle errors
var (
	ErrAlreadyStarted = errors.New("engine already started")
	ErrClosed         = errors.New("engine is closed")
)

// Engine is the main orchestrator. Start acquires the completion
// subscription and Close releases it; everything else is safe to call
// from any goroutine.
type Engine struct {
	config     *config.Config
	eventBus   *events.EventBus
	store      *state.Store
	executor   gateway.Executor
	gateway    *gateway.Gateway
	reconciler *reconcile.JobReconciler
	loader     *reconcile.FileListLoader
	logger     *logging.Logger

	mu          sync.Mutex
	started     bool
	closed      bool
	unsubscribe gateway.Unsubscribe
	untap       func()
	handlers    []func(payload string)
	closeOnce   sync.Once
}

// NewExecutor builds the command boundary selected by cfg.Executor.Mode.
func NewExecutor(cfg *config.Config, logger *logging.Logger) (gateway.Executor, error) {
	switch cfg.Executor.Mode {
	case constants.ExecutorLocal, "":
		return backend.NewLocal(backend.OptionsFromConfig(cfg), logger), nil
	case constants.ExecutorProcess:
		exec := gateway.NewProcessExecutor(cfg.Executor.Program, cfg.Executor.Args, logger)
		exec.Timeout = cfg.CommandTimeout()
		return exec, nil
	case constants.ExecutorHTTP:
		exec, err := gateway.NewHTTPExecutor(cfg.Executor.BaseURL, cfg.CommandTimeout(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP executor: %w", err)
		}
		return exec, nil
	default:
		return nil, fmt.Errorf("%w (got %q)", config.ErrUnknownExecutor, cfg.Executor.Mode)
	}
}

// NewEngine creates an engine using the executor selected by cfg.
func NewEngine(cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	exec, err := NewExecutor(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewEngineWithExecutor(cfg, exec, logger), nil
}

// NewEngineWithExecutor creates an engine on top of an existing executor.
func NewEngineWithExecutor(cfg *config.Config, exec gateway.Executor, logger *logging.Logger) *Engine {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	logger = logging.OrNop(logger)

	eventBus := events.NewEventBus(cfg.Events.Buffer)
	store := state.NewStore(eventBus)

	gw := gateway.New(exec, eventBus, logger)
	gw.SetCompletionEvent(cfg.Events.Completion)

	return &Engine{
		config:     cfg,
		eventBus:   eventBus,
		store:      store,
		executor:   exec,
		gateway:    gw,
		reconciler: reconcile.NewJobReconciler(gw, store, eventBus, logger),
		loader:     reconcile.NewFileListLoader(gw, store, classify.AssetURL(cfg.Display.URLPrefix), logger),
		logger:     logger.Component("engine"),
	}
}

// GetConfig returns the engine configuration
func (e *Engine) GetConfig() *config.Config {
	return e.config
}

// Events returns the event bus for subscriptions
func (e *Engine) Events() *events.EventBus {
	return e.eventBus
}

// State returns the view state store
func (e *Engine) State() *state.Store {
	return e.store
}

// Gateway returns the command gateway
func (e *Engine) Gateway() *gateway.Gateway {
	return e.gateway
}

// OnCompletion registers fn to receive completion notification payloads.
// Must be called before Start.
func (e *Engine) OnCompletion(fn func(payload string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

// Start acquires the completion subscription and the debug event log. If
// Start fails both are released before it returns.
func (e *Engine) Start(ctx context.Context) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}

	handlers := append([]func(string){}, e.handlers...)
	unsubscribe := e.gateway.SubscribeCompletion(func(payload string) {
		e.logger.Info().Str("event", e.gateway.CompletionEvent()).Str("payload", payload).Msg("Completion received")
		for _, h := range handlers {
			h(payload)
		}
	})
	untap := e.eventBus.SubscribeAllFunc(e.logEvent)
	defer func() {
		if err != nil {
			untap()
			unsubscribe()
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("engine start aborted: %w", err)
	}

	e.unsubscribe = unsubscribe
	e.untap = untap
	e.started = true
	e.logger.Debug().Str("executor", e.config.Executor.Mode).Msg("Engine started")
	return nil
}

// Close releases the completion subscription and shuts down the event bus.
// Safe to call more than once and without a prior Start.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		unsubscribe, untap := e.unsubscribe, e.untap
		e.unsubscribe, e.untap = nil, nil
		e.closed = true
		e.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		if untap != nil {
			untap()
		}
		if h, ok := e.executor.(*gateway.HTTPExecutor); ok {
			h.CloseIdleConnections()
		}
		e.eventBus.Close()
		e.logger.Debug().Msg("Engine closed")
	})
	return nil
}

// logEvent writes every bus event to the debug log.
func (e *Engine) logEvent(ev events.Event) {
	switch ev := ev.(type) {
	case *events.PhaseChangedEvent:
		e.logger.Debug().
			Str("request_id", ev.RequestID).
			Uint64("seq", ev.Sequence).
			Str("from", ev.OldPhase).
			Str("to", ev.NewPhase).
			Str("message", ev.Message).
			Int("jobs", ev.JobCount).
			Msg("Submission phase changed")
	case *state.JobsChangedEvent:
		e.logger.Debug().Int("jobs", len(ev.Jobs)).Msg("Jobs changed")
	case *state.FilesChangedEvent:
		e.logger.Debug().Int("files", len(ev.Files)).Int("images", len(ev.ImageURLs)).Msg("Files changed")
	case *state.StatusChangedEvent:
		e.logger.Debug().Str("status", ev.Status).Msg("Status changed")
	case *events.CompletionEvent:
		e.logger.Debug().Str("name", ev.Name).Str("payload", ev.Payload).Msg("Notification")
	default:
		e.logger.Debug().Str("type", string(ev.Type())).Msg("Event")
	}
}

// SubmitJobs runs the job reconciler on raw payload text.
func (e *Engine) SubmitJobs(ctx context.Context, raw string) (*reconcile.Result, error) {
	return e.reconciler.Submit(ctx, raw)
}

// Phase returns the job reconciler state.
func (e *Engine) Phase() reconcile.Phase {
	return e.reconciler.Phase()
}

// LoadFiles refreshes the file list and image URLs.
func (e *Engine) LoadFiles(ctx context.Context) (classify.Result, error) {
	return e.loader.Load(ctx)
}

// Greet sends a summary of the current jobs to the backend and shows the
// reply as the status message.
func (e *Engine) Greet(ctx context.Context) (string, error) {
	name := models.JobsSummary(e.store.Jobs())

	reply, err := e.gateway.Greet(ctx, name)
	if err != nil {
		e.store.SetStatus(err.Error())
		return "", err
	}
	e.store.SetStatus(reply)
	return reply, nil
}

// LogoList sends a directory hint to the backend and shows the reply as
// the status message.
func (e *Engine) LogoList(ctx context.Context, dir string) (string, error) {
	reply, err := e.gateway.LogoList(ctx, dir)
	if err != nil {
		e.store.SetStatus(err.Error())
		return "", err
	}
	e.store.SetStatus(reply)
	return reply, nil
}
