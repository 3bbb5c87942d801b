package state

import (
	"sync"

	"github.com/logocruncher/logo-cruncher/internal/events"
	"github.com/logocruncher/logo-cruncher/internal/models"
)

// ViewState is a point-in-time copy of everything the presentation layer
// renders. Slices are owned by the caller.
type ViewState struct {
	Jobs      []models.LogoJob
	Files     []string
	ImageURLs []string
	Status    string
}

// HasStatus reports whether a status message is set.
func (v ViewState) HasStatus() bool { return v.Status != "" }

// Store is the owned view state container.
// Each field has a single setter and every setter replaces its field
// wholesale, so the job flow and the file flow never touch the same data.
// Thread-safe for concurrent access.
type Store struct {
	eventBus *events.EventBus

	jobs      []models.LogoJob
	files     []string
	imageURLs []string
	status    string

	mu sync.RWMutex
}

// NewStore creates an empty Store. eventBus may be nil.
func NewStore(eventBus *events.EventBus) *Store {
	return &Store{
		eventBus:  eventBus,
		jobs:      make([]models.LogoJob, 0),
		files:     make([]string, 0),
		imageURLs: make([]string, 0),
	}
}

// SetJobs replaces the job list and publishes a change event.
func (s *Store) SetJobs(jobs []models.LogoJob) {
	s.mu.Lock()
	s.jobs = models.CloneJobs(jobs)
	jobsCopy := models.CloneJobs(s.jobs)
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(NewJobsChangedEvent(jobsCopy))
	}
}

// SetFiles replaces the file list and the image URL list together.
// A reader never observes files from one listing with images from another.
func (s *Store) SetFiles(files, imageURLs []string) {
	s.mu.Lock()
	s.files = cloneStrings(files)
	s.imageURLs = cloneStrings(imageURLs)
	filesCopy := cloneStrings(s.files)
	urlsCopy := cloneStrings(s.imageURLs)
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(NewFilesChangedEvent(filesCopy, urlsCopy))
	}
}

// SetStatus sets the status message. An unchanged message publishes nothing.
func (s *Store) SetStatus(status string) {
	s.mu.Lock()
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(NewStatusChangedEvent(status))
	}
}

// ClearStatus removes the status message.
func (s *Store) ClearStatus() {
	s.SetStatus("")
}

// Jobs returns a copy of the current job list.
func (s *Store) Jobs() []models.LogoJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneJobs(s.jobs)
}

// Files returns copies of the current file list and image URLs.
func (s *Store) Files() (files, imageURLs []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStrings(s.files), cloneStrings(s.imageURLs)
}

// Status returns the current status message ("" when absent).
func (s *Store) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a consistent copy of the whole view state.
func (s *Store) Snapshot() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ViewState{
		Jobs:      models.CloneJobs(s.jobs),
		Files:     cloneStrings(s.files),
		ImageURLs: cloneStrings(s.imageURLs),
		Status:    s.status,
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
