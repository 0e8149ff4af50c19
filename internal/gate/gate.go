// Package gate implements the suspend/resume signal the resolution
// workers wait on while the view scrolls.
package gate

import (
	"context"
	"sync"
	"time"
)

// Gate is open (running) or closed (suspended). Wait blocks while it is
// closed. A debounced resume can be scheduled and is cancelled by any
// later Suspend.
type Gate struct {
	mu      sync.Mutex
	open    chan struct{} // closed while running
	running bool
	timer   *time.Timer
	due     time.Time // when the scheduled resume fires
	seq     uint64    // identifies the latest scheduled resume
}

// New returns a running gate.
func New() *Gate {
	g := &Gate{open: make(chan struct{}), running: true}
	close(g.open)
	return g
}

// Wait returns once the gate is running, or with ctx's error.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Suspend closes the gate and cancels any pending resume.
func (g *Gate) Suspend() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	if !g.running {
		return
	}
	g.running = false
	g.open = make(chan struct{})
}

// Resume opens the gate immediately.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	g.resumeLocked()
}

// ResumeAfter opens the gate after d unless Suspend or another
// ResumeAfter happens first.
func (g *Gate) ResumeAfter(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	g.resumeAfterLocked(d)
}

// Hold closes the gate and returns a func that puts back the state Hold
// found: running, resuming at the time already scheduled, or suspended.
// Restoring does nothing once Suspend or a resume has happened since.
func (g *Gate) Hold() (restore func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	running, due := g.running, g.due
	g.stopTimerLocked()
	if g.running {
		g.running = false
		g.open = make(chan struct{})
	}
	held := g.seq
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.seq != held {
			return
		}
		switch {
		case running:
			g.resumeLocked()
		case !due.IsZero():
			g.stopTimerLocked()
			g.resumeAfterLocked(time.Until(due))
		}
	}
}

func (g *Gate) resumeAfterLocked(d time.Duration) {
	if d <= 0 {
		g.resumeLocked()
		return
	}
	seq := g.seq
	g.due = time.Now().Add(d)
	g.timer = time.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.seq != seq {
			return
		}
		g.timer = nil
		g.due = time.Time{}
		g.resumeLocked()
	})
}

// Suspended reports whether workers are paused.
func (g *Gate) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.running
}

func (g *Gate) resumeLocked() {
	if g.running {
		return
	}
	g.running = true
	close(g.open)
}

func (g *Gate) stopTimerLocked() {
	g.seq++
	g.due = time.Time{}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
