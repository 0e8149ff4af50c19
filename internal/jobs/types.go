package jobs

import (
	"context"
	"sync"
	"time"

	"shellview/internal/shell"
)

// Status represents job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Job runs one file operation batch on its own goroutine.
type Job struct {
	// immutable fields
	ID   int64
	Kind shell.OpKind // kind of the first operation
	Ops  []shell.Op

	// state
	mu            sync.RWMutex
	Status        Status
	TotalOps      int
	DoneOps       int
	CurrentSource string
	Error         string
	Failures      []JobFailure
	EnqueuedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time

	err  error
	done chan struct{}

	// cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// Wait blocks until the job finished and returns its error.
func (j *Job) Wait() error {
	<-j.done
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Done is closed when the job finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel asks a running job to stop after the current step.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Snapshot returns a copy of important fields for UI.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobSnapshot{
		ID:            j.ID,
		Kind:          j.Kind,
		Status:        j.Status,
		TotalOps:      j.TotalOps,
		DoneOps:       j.DoneOps,
		CurrentSource: j.CurrentSource,
		Error:         j.Error,
		Failures:      append([]JobFailure(nil), j.Failures...),
		EnqueuedAt:    j.EnqueuedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		Ops:           append([]shell.Op(nil), j.Ops...),
	}
}

// JobSnapshot is a read-only view for UI.
type JobSnapshot struct {
	ID            int64
	Kind          shell.OpKind
	Status        Status
	Ops           []shell.Op
	TotalOps      int
	DoneOps       int
	CurrentSource string
	Error         string
	Failures      []JobFailure
	EnqueuedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time
}

// JobFailure records a single failing path and error message.
type JobFailure struct {
	TopSource string // source of the operation being processed when failure occurred
	Path      string // specific path that failed (may be a child inside a directory)
	Error     string
}
