package domain

// JobStatus is the lifecycle state of a background job
type JobStatus string

// Job status constants
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Progress checkpoints published while a job runs
const (
	ProgressStarted  = 0
	ProgressSetup    = 10
	ProgressFinished = 100
)

// Execution modes reported in results
const (
	ExecutionModeIntegrated = "integrated-server"
	ModeAsync               = "async"
	ModeSync                = "sync"
)

// IsTerminal reports whether no further transition can leave this status
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsActive reports whether the job is still pending or running
func (s JobStatus) IsActive() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// CanTransition reports whether moving from s to next is a legal forward step.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}
