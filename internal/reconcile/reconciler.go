// Package reconcile merges asynchronous backend responses into the view
// state: the job reconciler drives a payload from raw text to the applied
// job list, and the file list loader refreshes the directory listing.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logocruncher/logo-cruncher/internal/events"
	"github.com/logocruncher/logo-cruncher/internal/jobs"
	"github.com/logocruncher/logo-cruncher/internal/logging"
	"github.com/logocruncher/logo-cruncher/internal/models"
	"github.com/logocruncher/logo-cruncher/internal/payload"
	"github.com/logocruncher/logo-cruncher/internal/state"
)

// Phase is a job reconciler state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseParsing
	PhaseSubmitting
	PhaseApplied
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseParsing:
		return "parsing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseApplied:
		return "applied"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrStaleResponse is returned when a response arrives after a newer
// submission was dispatched. The response is discarded.
var ErrStaleResponse = errors.New("stale response discarded")

// Submitter forwards raw payload text to the backend.
type Submitter interface {
	SubmitPayload(ctx context.Context, raw string) ([]models.LogoJob, error)
}

// Result describes one applied submission.
type Result struct {
	RequestID string
	Sequence  uint64
	// Preview is the local attachment fan-out computed before dispatch.
	Preview []models.LogoJob
	// Jobs is the authoritative list returned by the backend.
	Jobs     []models.LogoJob
	Duration time.Duration
}

// JobReconciler runs Idle -> Parsing -> Submitting -> Applied|Failed -> Idle.
//
// Every dispatch is tagged with a sequence number; a response, successful or
// not, is applied only while its sequence is the latest dispatched. Parse
// failures never dispatch and so never advance the sequence.
type JobReconciler struct {
	submitter Submitter
	store     *state.Store
	eventBus  *events.EventBus
	logger    *logging.Logger

	mu       sync.Mutex
	phase    Phase
	latest   uint64
	inFlight int
}

// NewJobReconciler creates a reconciler writing to store. eventBus may be nil.
func NewJobReconciler(submitter Submitter, store *state.Store, eventBus *events.EventBus, logger *logging.Logger) *JobReconciler {
	return &JobReconciler{
		submitter: submitter,
		store:     store,
		eventBus:  eventBus,
		logger:    logging.OrNop(logger).Component("reconciler"),
	}
}

// Phase returns the current state.
func (r *JobReconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// LatestSequence returns the sequence number of the most recent dispatch.
func (r *JobReconciler) LatestSequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Submit parses raw locally, forwards it to the backend and applies the
// response. On failure the status message is set and the error returned;
// the job list is left untouched. A discarded response yields
// ErrStaleResponse and touches nothing.
func (r *JobReconciler) Submit(ctx context.Context, raw string) (*Result, error) {
	requestID := uuid.NewString()
	start := time.Now()
	log := r.logger.With().Str("request_id", requestID).Logger()

	r.mu.Lock()
	r.transitionLocked(requestID, 0, PhaseParsing, "", 0)
	r.mu.Unlock()

	root, err := payload.Parse(raw)
	if err != nil {
		status := ParseStatus(err)
		log.Warn().Err(err).Msg("Payload rejected before dispatch")

		r.mu.Lock()
		r.store.SetStatus(status)
		r.transitionLocked(requestID, 0, PhaseFailed, status, 0)
		r.settleLocked(requestID, 0)
		r.mu.Unlock()
		return nil, err
	}

	preview := jobs.Normalize(root)

	r.mu.Lock()
	r.latest++
	seq := r.latest
	r.inFlight++
	r.transitionLocked(requestID, seq, PhaseSubmitting, "", 0)
	r.mu.Unlock()

	log.Debug().
		Uint64("seq", seq).
		Int("items", len(root.Data.Items)).
		Int("preview_jobs", len(preview)).
		Msg("Payload dispatched")

	logos, submitErr := r.submitter.SubmitPayload(ctx, raw)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--

	if seq != r.latest {
		ev := log.Warn().Uint64("seq", seq).Uint64("latest", r.latest)
		if submitErr != nil {
			ev = ev.AnErr("response_error", submitErr)
		} else {
			ev = ev.Int("jobs", len(logos))
		}
		ev.Msg("Discarding stale response")
		if r.inFlight == 0 && r.phase == PhaseSubmitting {
			r.transitionLocked(requestID, seq, PhaseIdle, "", 0)
		}
		return nil, ErrStaleResponse
	}

	if submitErr != nil {
		status := submitErr.Error()
		log.Error().Err(submitErr).Uint64("seq", seq).Msg("Submission failed")
		r.store.SetStatus(status)
		r.transitionLocked(requestID, seq, PhaseFailed, status, 0)
		r.settleLocked(requestID, seq)
		return nil, submitErr
	}

	if logos == nil {
		logos = []models.LogoJob{}
	}
	r.store.SetJobs(logos)
	r.store.ClearStatus()
	r.transitionLocked(requestID, seq, PhaseApplied, "", len(logos))
	r.settleLocked(requestID, seq)

	log.Info().
		Uint64("seq", seq).
		Int("jobs", len(logos)).
		Dur("elapsed", time.Since(start)).
		Msg("Job list applied")

	return &Result{
		RequestID: requestID,
		Sequence:  seq,
		Preview:   preview,
		Jobs:      models.CloneJobs(logos),
		Duration:  time.Since(start),
	}, nil
}

// settleLocked returns to Idle unless a newer submission is still in flight.
func (r *JobReconciler) settleLocked(requestID string, seq uint64) {
	if r.inFlight > 0 {
		r.phase = PhaseSubmitting
		return
	}
	r.transitionLocked(requestID, seq, PhaseIdle, "", 0)
}

func (r *JobReconciler) transitionLocked(requestID string, seq uint64, next Phase, message string, jobCount int) {
	prev := r.phase
	r.phase = next

	if r.eventBus != nil {
		r.eventBus.Publish(&events.PhaseChangedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventPhaseChanged, Time: time.Now()},
			RequestID: requestID,
			Sequence:  seq,
			OldPhase:  prev.String(),
			NewPhase:  next.String(),
			Message:   message,
			JobCount:  jobCount,
		})
	}
}

// ParseStatus renders a parse failure as the status message shown to the user.
func ParseStatus(err error) string {
	label := "JSON syntax error"
	if payload.IsSchema(err) {
		label = "JSON structure error"
	}

	var parseErr *payload.ParseError
	if errors.As(err, &parseErr) {
		if detail := parseErr.Detail(); detail != "" {
			return label + ": " + detail
		}
		return label
	}
	return label + ": " + err.Error()
}
