package constants

import (
	"time"
)

// Command names understood by the processing backend.
const (
	// CommandProcessJSON hands a pasted payload to the backend, which answers with the job list
	CommandProcessJSON = "process_json"

	// CommandGreet sends a summary of the current jobs and receives a greeting back
	CommandGreet = "greet"

	// CommandLogoList is the legacy directory-hint command
	CommandLogoList = "logo_list"

	// CommandGetFileList asks for the flat list of paths in the backend's working directory
	CommandGetFileList = "get_file_list"
)

// EventGreetFinished is the completion notification emitted after a greet round trip.
const EventGreetFinished = "event-greet-finished"

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// File classification
var (
	// ImageExtensions lists the extensions (lowercase, without dot) rendered as images.
	// Matching is case-insensitive on the path suffix.
	ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}

	// DirectoryJobExtensions lists the extensions accepted when deriving jobs
	// from a directory of downloaded images. SVG is excluded: those files are
	// outputs, not sources.
	DirectoryJobExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
)

const (
	// DefaultDisplayURLPrefix - prefix used to turn a local path into a URL the
	// rendering layer can load.
	DefaultDisplayURLPrefix = "asset://localhost/"

	// EmptyJobURL - placeholder URL for jobs derived from files already on disk
	EmptyJobURL = "None url"

	// DefaultBackupFileName - file name of the job backup written by process_json
	DefaultBackupFileName = "job.json"
)

// Executor modes
const (
	ExecutorLocal   = "local"
	ExecutorProcess = "process"
	ExecutorHTTP    = "http"
)

// Command boundary
const (
	// DefaultCommandTimeout - 0 means the caller's context is the only deadline.
	// The boundary owns timeout policy; this only guards runaway local processes
	// when explicitly configured.
	DefaultCommandTimeout = 0 * time.Second

	// MaxEnvelopeBytes - upper bound on a backend response envelope (32 MB)
	MaxEnvelopeBytes = 32 * 1024 * 1024
)

// UI Updates
const (
	// WatchDebounceInterval - quiet period after the last filesystem event
	// before the file list is reloaded
	WatchDebounceInterval = 250 * time.Millisecond

	// SpinnerThrottle - minimum time between spinner redraws
	SpinnerThrottle = 100 * time.Millisecond

	// CompletionWait - how long the CLI waits for the completion event after
	// a greet reply before exiting
	CompletionWait = 2 * time.Second
)
