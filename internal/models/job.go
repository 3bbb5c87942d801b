// Package models defines data structures shared by the payload parser,
// the command gateway and the view state.
package models

import (
	"fmt"
	"strings"
)

// LogoJob is a unit of work destined for logo processing: an identifier
// paired with the URL of the source image.
type LogoJob struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// String renders the job the way the greet summary lists it.
func (j LogoJob) String() string {
	return fmt.Sprintf("id:%d url:%s", j.ID, j.URL)
}

// Jobs is the response shape of the process_json command.
type Jobs struct {
	Logos []LogoJob `json:"logos"`
}

// CloneJobs returns a copy of jobs that never aliases the input.
// A nil input yields an empty, non-nil slice.
func CloneJobs(jobs []LogoJob) []LogoJob {
	out := make([]LogoJob, len(jobs))
	copy(out, jobs)
	return out
}

// JobsSummary builds the display name sent with the greet command:
// "0) id:1 url:a,1) id:2 url:b".
func JobsSummary(jobs []LogoJob) string {
	parts := make([]string, 0, len(jobs))
	for i, job := range jobs {
		parts = append(parts, fmt.Sprintf("%d) %s", i, job))
	}
	return strings.Join(parts, ",")
}
