package workqueue

import "sync"

// Pending tracks keys that are already scheduled so callers can check
// before enqueueing. It is safe for concurrent use.
type Pending[K comparable] struct {
	mu   sync.Mutex
	keys map[K]struct{}
}

// NewPending creates an empty set.
func NewPending[K comparable]() *Pending[K] {
	return &Pending[K]{keys: make(map[K]struct{})}
}

// TryAdd marks k as scheduled. It returns false if k was already there.
func (p *Pending[K]) TryAdd(k K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.keys[k]; ok {
		return false
	}
	p.keys[k] = struct{}{}
	return true
}

// Has reports whether k is scheduled.
func (p *Pending[K]) Has(k K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.keys[k]
	return ok
}

// Remove unmarks k.
func (p *Pending[K]) Remove(k K) {
	p.mu.Lock()
	delete(p.keys, k)
	p.mu.Unlock()
}

// Clear unmarks everything.
func (p *Pending[K]) Clear() {
	p.mu.Lock()
	p.keys = make(map[K]struct{})
	p.mu.Unlock()
}

// Len returns the number of scheduled keys.
func (p *Pending[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
