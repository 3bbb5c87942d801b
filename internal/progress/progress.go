// Package progress shows activity while a backend command is in flight.
// On a terminal it draws a spinner; elsewhere it stays silent.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/logocruncher/logo-cruncher/internal/constants"
)

// Reporter is the interface for reporting in-flight work.
type Reporter interface {
	Start(description string)
	SetDescription(desc string)
	Finish()
	Error(err error)
}

// New returns a Spinner writing to out when out is a terminal and enabled
// is true, and a NoOpProgress otherwise.
func New(out *os.File, enabled bool) Reporter {
	if !enabled || out == nil || !term.IsTerminal(int(out.Fd())) {
		return NewNoOpProgress()
	}
	return NewSpinner(out)
}

// Spinner implements Reporter with an indeterminate progress bar.
type Spinner struct {
	out  io.Writer
	tick time.Duration

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner drawing on out.
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out, tick: constants.SpinnerThrottle}
}

// Start draws the spinner and keeps it animated until Finish or Error.
// Starting an already running spinner only changes its description.
func (s *Spinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		s.bar.Describe(description)
		return
	}

	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(s.tick),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.animate(s.bar, s.stop, s.done)
}

func (s *Spinner) animate(bar *progressbar.ProgressBar, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

// SetDescription updates the spinner description.
func (s *Spinner) SetDescription(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		s.bar.Describe(desc)
	}
}

// Finish stops and clears the spinner. Safe to call more than once.
func (s *Spinner) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		return
	}
	close(s.stop)
	<-s.done
	_ = s.bar.Finish()
	s.bar = nil
}

// Error stops the spinner and prints err.
func (s *Spinner) Error(err error) {
	s.Finish()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

// NoOpProgress implements Reporter but does nothing.
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(description string)   {}
func (p *NoOpProgress) SetDescription(desc string) {}
func (p *NoOpProgress) Finish()                    {}
func (p *NoOpProgress) Error(err error)            {}

// Track runs fn while r shows description.
func Track[T any](r Reporter, description string, fn func() (T, error)) (T, error) {
	r.Start(description)
	v, err := fn()
	r.Finish()
	return v, err
}
