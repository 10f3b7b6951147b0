package model

import "time"

// RunTrigger identifies what started a collection run.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "scheduled"
	TriggerManual    RunTrigger = "manual"
)

// RunStatus is the lifecycle state of a collection run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one complete execution of the collection pipeline with a single
// pass/fail outcome. Error holds the first structural error when Status is
// RunStatusFailed.
type Run struct {
	ID            int64
	Trigger       RunTrigger
	Status        RunStatus
	StartedAt     time.Time
	FinishedAt    time.Time // Zero while the run is in progress.
	Creators      int       // Creators processed.
	CreatorErrors int       // Creators skipped due to fetch errors.
	Rows          int       // Daily stat rows produced.
	Error         string
}

// Duration returns the elapsed run time, using the current time while the run
// is still in progress.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
