// Package state provides the observable view state container.
// The store emits events when a field changes so any frontend can
// subscribe and refresh only what it shows.
package state

import (
	"time"

	"github.com/logocruncher/logo-cruncher/internal/events"
	"github.com/logocruncher/logo-cruncher/internal/models"
)

// State event types
const (
	EventJobsChanged   events.EventType = "jobs_changed"
	EventFilesChanged  events.EventType = "files_changed"
	EventStatusChanged events.EventType = "status_changed"
)

// JobsChangedEvent is published when the job list is replaced.
type JobsChangedEvent struct {
	events.BaseEvent
	Jobs []models.LogoJob
}

// FilesChangedEvent is published when the file list and image URLs are replaced.
type FilesChangedEvent struct {
	events.BaseEvent
	Files     []string
	ImageURLs []string
}

// StatusChangedEvent is published when the status message changes.
// An empty Status means the message was cleared.
type StatusChangedEvent struct {
	events.BaseEvent
	Status string
}

// NewJobsChangedEvent creates a new JobsChangedEvent.
func NewJobsChangedEvent(jobs []models.LogoJob) *JobsChangedEvent {
	return &JobsChangedEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventJobsChanged,
			Time:      time.Now(),
		},
		Jobs: jobs,
	}
}

// NewFilesChangedEvent creates a new FilesChangedEvent.
func NewFilesChangedEvent(files, imageURLs []string) *FilesChangedEvent {
	return &FilesChangedEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventFilesChanged,
			Time:      time.Now(),
		},
		Files:     files,
		ImageURLs: imageURLs,
	}
}

// NewStatusChangedEvent creates a new StatusChangedEvent.
func NewStatusChangedEvent(status string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventStatusChanged,
			Time:      time.Now(),
		},
		Status: status,
	}
}
