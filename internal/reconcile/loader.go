package reconcile

import (
	"context"

	"github.com/logocruncher/logo-cruncher/internal/classify"
	"github.com/logocruncher/logo-cruncher/internal/logging"
	"github.com/logocruncher/logo-cruncher/internal/state"
)

// Lister fetches the backend's flat directory listing.
type Lister interface {
	ListDirectory(ctx context.Context) ([]string, error)
}

// FileListLoader refreshes the file list and image URLs in the store.
type FileListLoader struct {
	lister Lister
	store  *state.Store
	toURL  classify.DisplayURLFunc
	logger *logging.Logger
}

// NewFileListLoader creates a loader. A nil toURL keeps paths as they are.
func NewFileListLoader(lister Lister, store *state.Store, toURL classify.DisplayURLFunc, logger *logging.Logger) *FileListLoader {
	if toURL == nil {
		toURL = classify.Identity
	}
	return &FileListLoader{
		lister: lister,
		store:  store,
		toURL:  toURL,
		logger: logging.OrNop(logger).Component("file-loader"),
	}
}

// Load lists the directory, classifies the result and replaces the file
// list and image URLs together. On failure the store is left untouched and
// the error is returned; the status message is not changed.
func (l *FileListLoader) Load(ctx context.Context) (classify.Result, error) {
	paths, err := l.lister.ListDirectory(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to load file list")
		return classify.Result{}, err
	}

	result := classify.Classify(paths, l.toURL)
	l.store.SetFiles(result.All, result.ImageURLs)

	l.logger.Debug().
		Int("files", len(result.All)).
		Int("images", len(result.Images)).
		Msg("File list loaded")
	return result, nil
}
