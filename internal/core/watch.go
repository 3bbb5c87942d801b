package core

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/logocruncher/logo-cruncher/internal/classify"
	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/localfs"
)

// ReloadFunc receives the outcome of every file list reload.
type ReloadFunc func(result classify.Result, err error)

// WatchDirectory reloads the file list whenever dir changes, once the
// directory has been quiet for the debounce interval. It loads once up
// front and blocks until ctx is cancelled.
func (e *Engine) WatchDirectory(ctx context.Context, dir string, onReload ReloadFunc) error {
	return e.watchDirectory(ctx, dir, constants.WatchDebounceInterval, onReload)
}

func (e *Engine) watchDirectory(ctx context.Context, dir string, debounce time.Duration, onReload ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	reload := func() {
		res, err := e.LoadFiles(ctx)
		if ctx.Err() != nil {
			return
		}
		if onReload != nil {
			onReload(res, err)
		}
	}

	e.logger.Info().Str("dir", dir).Msg("Watching directory")
	reload()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !e.config.Files.IncludeHidden && localfs.IsHidden(event.Name) {
				continue
			}
			e.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Directory changed")
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			reload()
		}
	}
}
