package sequencer

import (
	"time"

	"clipforge/internal/plan"
)

// JobStatus tracks one unit of engine work.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobKind distinguishes generation work from editing work.
type JobKind string

const (
	JobGeneration JobKind = "generation"
	JobEdit       JobKind = "edit"
)

// Job is an in-memory record of queued or executed work. Jobs do not survive
// a restart; interrupted work is recovered through the project store instead.
type Job struct {
	ID         string
	ProjectID  string
	Kind       JobKind
	Label      string
	Status     JobStatus
	Error      string
	Operation  *plan.Operation
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	done chan struct{}
}

// Done returns a channel closed when the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

func (j *Job) snapshot() Job {
	cp := *j
	cp.done = nil
	if j.Operation != nil {
		op := *j.Operation
		cp.Operation = &op
	}
	return cp
}
