package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	apperrors "shellview/internal/errors"
	"shellview/internal/metrics"
	"shellview/internal/shell"
)

// debug hook, set from main; should print only when -d enabled
var debugf func(format string, args ...interface{})

// SetDebug installs a debug logger used when -d flag is on.
func SetDebug(fn func(format string, args ...interface{})) { debugf = fn }

func dbg(format string, args ...interface{}) {
	if debugf != nil {
		debugf("jobs: "+format, args...)
	}
}

// Manager starts file operation jobs and keeps their history.
type Manager struct {
	svc shell.FileOperationService

	mu          sync.Mutex
	nextID      int64
	subscribers []func()
	running     map[int64]*Job
	history     []*Job
	historyMax  int
	wg          sync.WaitGroup
}

// NewManager constructs a Manager executing batches with svc.
func NewManager(svc shell.FileOperationService) *Manager {
	m := &Manager{svc: svc, running: make(map[int64]*Job), historyMax: 100}
	dbg("manager created")
	return m
}

// Subscribe registers a callback called on state changes.
func (m *Manager) Subscribe(cb func()) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, cb)
	n := len(m.subscribers)
	m.mu.Unlock()
	dbg("subscriber added (total=%d)", n)
}

func (m *Manager) notify() {
	// call without holding the lock to avoid re-entrancy
	m.mu.Lock()
	subs := append([]func(){}, m.subscribers...)
	m.mu.Unlock()
	for _, cb := range subs {
		cb()
	}
}

// Submit starts batch on its own goroutine. The job stops when ctx is
// canceled or Cancel is called.
func (m *Manager) Submit(ctx context.Context, batch shell.Batch) *Job {
	j := &Job{
		ID:         atomic.AddInt64(&m.nextID, 1),
		Ops:        append([]shell.Op(nil), batch.Ops...),
		Status:     StatusPending,
		TotalOps:   len(batch.Ops),
		EnqueuedAt: time.Now(),
		done:       make(chan struct{}),
	}
	if len(batch.Ops) > 0 {
		j.Kind = batch.Ops[0].Kind
	}
	j.ctx, j.cancel = context.WithCancel(ctx)

	m.mu.Lock()
	m.running[j.ID] = j
	m.mu.Unlock()
	dbg("submit id=%d kind=%s n=%d", j.ID, j.Kind, len(batch.Ops))
	m.notify()

	m.wg.Add(1)
	go m.run(j)
	return j
}

// Cancel cancels a running job by ID.
func (m *Manager) Cancel(id int64) bool {
	m.mu.Lock()
	j, ok := m.running[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	j.Cancel()
	dbg("cancel running id=%d", id)
	return true
}

// List returns snapshots of running jobs followed by history, newest first.
func (m *Manager) List() []JobSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JobSnapshot, 0, len(m.running)+len(m.history))
	for _, j := range m.running {
		out = append(out, j.Snapshot())
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		out = append(out, m.history[i].Snapshot())
	}
	return out
}

// Wait blocks until every submitted job finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(j *Job) {
	defer m.wg.Done()
	defer j.cancel()

	j.mu.Lock()
	j.Status = StatusRunning
	j.StartedAt = time.Now()
	j.mu.Unlock()
	dbg("start job id=%d", j.ID)
	m.notify()

	err := m.runJob(j)

	j.mu.Lock()
	j.err = err
	switch {
	case err == nil:
		j.Status = StatusCompleted
		dbg("job completed id=%d done=%d", j.ID, j.DoneOps)
	case errors.Is(err, apperrors.ErrCanceled):
		j.Status = StatusCanceled
		dbg("job canceled id=%d after %d/%d", j.ID, j.DoneOps, j.TotalOps)
	default:
		j.Status = StatusFailed
		j.Error = err.Error()
		dbg("job failed id=%d err=%v", j.ID, err)
	}
	j.CompletedAt = time.Now()
	status := j.Status
	j.mu.Unlock()
	metrics.RecordFileOperation(j.Kind.String(), string(status))

	m.mu.Lock()
	delete(m.running, j.ID)
	m.addHistoryLocked(j)
	m.mu.Unlock()
	close(j.done)
	m.notify()
}

// addHistoryLocked appends a finished job to history and trims oldest; caller must hold m.mu
func (m *Manager) addHistoryLocked(j *Job) {
	m.history = append(m.history, j)
	if m.historyMax > 0 && len(m.history) > m.historyMax {
		drop := len(m.history) - m.historyMax
		m.history = append([]*Job{}, m.history[drop:]...)
	}
}

// runJob performs the operations one at a time so progress is visible
// and the batch is abandoned at the first failure.
func (m *Manager) runJob(j *Job) error {
	for i, op := range j.Ops {
		if j.ctx.Err() != nil {
			return apperrors.NewFileOperationError(op.Kind.String(), op.Source, apperrors.ErrCanceled)
		}
		j.mu.Lock()
		j.CurrentSource = op.Source
		j.mu.Unlock()
		m.notify()
		if err := m.svc.Perform(j.ctx, shell.Batch{Ops: []shell.Op{op}}); err != nil {
			j.mu.Lock()
			j.Failures = append(j.Failures, JobFailure{TopSource: op.Source, Path: failingPath(err), Error: err.Error()})
			j.mu.Unlock()
			return err
		}
		j.mu.Lock()
		j.DoneOps = i + 1
		j.mu.Unlock()
		dbg("job %d: done %d/%d", j.ID, i+1, j.TotalOps)
		m.notify()
	}
	return nil
}
